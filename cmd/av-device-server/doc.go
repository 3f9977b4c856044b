// Package main provides the entry point for av-device-server.
//
// av-device-server serves the files of a root directory, with directory
// listings, over HTTP on port 8080 and, when cert/server.key and
// cert/server.cert exist, over HTTPS on port 8443. It is meant for local
// WebRTC audio/video device pages, which browsers only allow on localhost
// or a secure origin.
//
// Configuration comes from defaults, an optional YAML file (--config),
// AVDS_* environment variables and flags, later sources winning.
package main
