// Package config provides the server configuration for av-device-server.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values (ports 8080/8443, root "public", cert dir "cert")
//   - verify.go: validation (address syntax, port conflicts, root directory)
//
// Configuration is loaded via internal/infra/confloader. Keys never contain
// underscores so that AVDS_SECTION_KEY environment variables map onto them.
package config
