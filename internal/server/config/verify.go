package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/Ztiany/av-device-server/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyListeners(cfg); err != nil {
		return err
	}
	if cfg.TLS.Key == "" || cfg.TLS.Cert == "" {
		return errors.New("tls.key and tls.cert are required")
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(s *ServerSection) error {
	if s.Root == "" {
		return errors.New("server.root is required")
	}
	info, err := os.Stat(s.Root)
	if err != nil {
		return fmt.Errorf("server.root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("server.root: %s is not a directory", s.Root)
	}
	if s.RateLimit < 0 {
		return errors.New("server.ratelimit must not be negative")
	}
	if s.Shutdown.Timeout <= 0 {
		return errors.New("server.shutdown.timeout must be positive")
	}
	return nil
}

type namedAddr struct {
	key  string
	host string
	port int
}

func verifyListeners(cfg *ServerConfig) error {
	entries := []struct {
		key, addr string
		optional  bool
	}{
		{"server.http.addr", cfg.Server.HTTP.Addr, false},
		{"server.https.addr", cfg.Server.HTTPS.Addr, false},
		{"metrics.addr", cfg.Metrics.Addr, true},
	}

	var seen []namedAddr
	for _, e := range entries {
		if e.addr == "" {
			if e.optional {
				continue
			}
			return fmt.Errorf("%s is required", e.key)
		}
		host, portStr, err := net.SplitHostPort(e.addr)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("%s: invalid port %q", e.key, portStr)
		}

		cur := namedAddr{key: e.key, host: host, port: port}
		for _, prev := range seen {
			if conflicts(prev, cur) {
				return fmt.Errorf("%s conflicts with %s (%s)", cur.key, prev.key, e.addr)
			}
		}
		seen = append(seen, cur)
	}
	return nil
}

// conflicts reports whether two listeners would bind the same port.
// Port 0 asks the kernel for a free port and never conflicts.
func conflicts(a, b namedAddr) bool {
	if a.port == 0 || b.port == 0 || a.port != b.port {
		return false
	}
	return isWildcard(a.host) || isWildcard(b.host) || a.host == b.host
}

func isWildcard(host string) bool {
	return host == "" || host == "0.0.0.0" || host == "::"
}

func verifyLog(l *LogSection) error {
	if !logger.ValidLevel(l.Level) {
		return fmt.Errorf("log.level: unknown level %q", l.Level)
	}
	if !logger.ValidFormat(l.Format) {
		return fmt.Errorf("log.format: unknown format %q", l.Format)
	}
	return nil
}
