package main

import (
	"flag"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	defaultGracePeriod   = 10 * time.Second
	shutdownPollInterval = 100 * time.Millisecond
)

// Variant selects the well-known port the server listens on by default.
type Variant string

const (
	VariantLegacy   Variant = "legacy"
	VariantHardened Variant = "hardened"
)

func (v Variant) defaultPort() (int, error) {
	switch v {
	case VariantLegacy:
		return 15000, nil
	case VariantHardened:
		return 15001, nil
	}
	return 0, fmt.Errorf("unknown variant %q", string(v))
}

type Config struct {
	// Host is the local address to bind; empty means all IPv4 interfaces.
	Host    string
	Port    int
	Variant Variant
	// Backlog is passed to listen(2) as is.
	Backlog     int
	GracePeriod time.Duration
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// parseConfig registers the server flags on fs and parses args.
// An explicit -port wins over the variant's port.
func parseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var (
		cfg     Config
		variant string
	)
	fs.StringVar(&cfg.Host, "host", "", "local address to listen on (empty for all interfaces)")
	fs.IntVar(&cfg.Port, "port", 0, "port to listen on, overrides the variant's port")
	fs.StringVar(&variant, "variant", string(VariantHardened), "server variant: legacy (port 15000) or hardened (port 15001)")
	fs.IntVar(&cfg.Backlog, "backlog", 0, "listen backlog")
	fs.DurationVar(&cfg.GracePeriod, "grace", defaultGracePeriod, "how long to wait for connections to finish on SIGTERM")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Variant = Variant(variant)
	port, err := cfg.Variant.defaultPort()
	if err != nil {
		return Config{}, err
	}
	portSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "port" {
			portSet = true
		}
	})
	if !portSet {
		cfg.Port = port
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Backlog < 0 {
		return Config{}, fmt.Errorf("invalid backlog %d", cfg.Backlog)
	}
	if cfg.GracePeriod <= 0 {
		return Config{}, fmt.Errorf("invalid grace period %v", cfg.GracePeriod)
	}
	return cfg, nil
}
