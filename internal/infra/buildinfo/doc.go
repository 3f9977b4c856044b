// Package buildinfo reports the version of the av-device-server binary.
//
// Version, Commit and BuildTime are injected with ldflags:
//
//	go build -ldflags "-X github.com/Ztiany/av-device-server/internal/infra/buildinfo.Version=v1.0.0"
//
// When they are not injected, Get falls back to the module and VCS data the
// Go toolchain embeds in every binary.
package buildinfo
