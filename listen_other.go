//go:build !linux

package main

import "net"

// listen falls back to net.Listen; the backlog is left to the runtime.
func listen(addr string, _ int) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
