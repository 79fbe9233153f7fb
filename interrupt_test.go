package main

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterrupter_Generations(t *testing.T) {
	intr := NewInterrupter()
	first := intr.Done()

	select {
	case <-first:
		t.Fatal("done before any interrupt")
	default:
	}

	intr.Interrupt()
	second := intr.Done()

	select {
	case <-first:
	default:
		t.Fatal("first generation not woken")
	}
	select {
	case <-second:
		t.Fatal("second generation woken by an earlier interrupt")
	default:
	}
	assert.Equal(t, uint64(1), intr.Fired())
}

func TestInterruptible_BreaksBlockedRead(t *testing.T) {
	intr := NewInterrupter()
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	errc := make(chan error, 1)
	go func() {
		buf := make([]byte, 8)
		_, err := interruptible(intr, server, "read", func() (int, error) {
			return server.Read(buf)
		})
		errc <- err
	}()

	// Give the reader time to block.
	time.Sleep(50 * time.Millisecond)
	intr.Interrupt()

	select {
	case err := <-errc:
		require.Error(t, err)
		assert.True(t, isInterrupted(err), "expected interruption, got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("read was not interrupted")
	}

	// The deadline must be cleared so the next call blocks normally.
	go client.Write([]byte("hi"))
	buf := make([]byte, 8)
	n, err := interruptible(intr, server, "read", func() (int, error) {
		return server.Read(buf)
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf[:n]))
}

func TestInterruptible_PassesThroughResults(t *testing.T) {
	errOther := errors.New("other")
	tests := []struct {
		name string
		intr *Interrupter
		d    deadliner
	}{
		{name: "without interrupter", intr: nil, d: &recordingDeadliner{}},
		{name: "without deadliner", intr: NewInterrupter(), d: nil},
		{name: "armed but not fired", intr: NewInterrupter(), d: &recordingDeadliner{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := interruptible(tt.intr, tt.d, "op", func() (int, error) {
				return 0, errOther
			})
			assert.Same(t, errOther, err)
			assert.False(t, isInterrupted(err))
			if rd, ok := tt.d.(*recordingDeadliner); ok {
				assert.Empty(t, rd.deadlines)
			}
		})
	}
}

type recordingDeadliner struct {
	deadlines []time.Time
}

func (d *recordingDeadliner) SetDeadline(t time.Time) error {
	d.deadlines = append(d.deadlines, t)
	return nil
}
