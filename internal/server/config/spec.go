package config

import "time"

// ServerConfig is the root configuration for av-device-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server" yaml:"server"`
	TLS     TLSSection     `koanf:"tls" yaml:"tls"`
	Listing ListingSection `koanf:"listing" yaml:"listing"`
	Metrics MetricsSection `koanf:"metrics" yaml:"metrics"`
	Log     LogSection     `koanf:"log" yaml:"log"`
}

// ServerSection configures the public listeners.
type ServerSection struct {
	// Root is the directory whose contents are served.
	Root string `koanf:"root" yaml:"root"`

	HTTP  ListenerConfig `koanf:"http" yaml:"http"`
	HTTPS ListenerConfig `koanf:"https" yaml:"https"`

	// RateLimit is the per-client request rate in requests/second (0 = off).
	RateLimit int `koanf:"ratelimit" yaml:"ratelimit"`

	Shutdown ShutdownConfig `koanf:"shutdown" yaml:"shutdown"`
}

// ListenerConfig configures one listener.
type ListenerConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// ShutdownConfig bounds graceful shutdown.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// TLSSection locates the certificate pair of the encrypted listener.
// The listener is skipped when either file is missing.
type TLSSection struct {
	Key  string `koanf:"key" yaml:"key"`
	Cert string `koanf:"cert" yaml:"cert"`
}

// ListingSection configures directory listings.
type ListingSection struct {
	// Hidden exposes dotfiles in listings and to direct requests.
	Hidden bool `koanf:"hidden" yaml:"hidden"`
}

// MetricsSection configures the admin listener (/metrics, /health).
type MetricsSection struct {
	// Addr is empty to disable the admin listener.
	Addr string `koanf:"addr" yaml:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
