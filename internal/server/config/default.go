package config

import (
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultRoot      = "public"
	DefaultHTTPAddr  = "0.0.0.0:8080"
	DefaultHTTPSAddr = "0.0.0.0:8443"

	DefaultCertDir  = "cert"
	DefaultKeyName  = "server.key"
	DefaultCertName = "server.cert"

	DefaultShutdownTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Root:     DefaultRoot,
			HTTP:     ListenerConfig{Addr: DefaultHTTPAddr},
			HTTPS:    ListenerConfig{Addr: DefaultHTTPSAddr},
			Shutdown: ShutdownConfig{Timeout: DefaultShutdownTimeout},
		},
		TLS: TLSSection{
			Key:  filepath.Join(DefaultCertDir, DefaultKeyName),
			Cert: filepath.Join(DefaultCertDir, DefaultCertName),
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
