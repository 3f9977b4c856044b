// Package metric provides Prometheus metrics for av-device-server.
//
// Metrics include:
//
//   - Requests served per listener, method and status code
//   - Request latency histograms per listener
//   - Response bytes per listener
//   - Listener state (1 running, 0 otherwise)
//
// Metrics are exposed at /metrics on the admin listener, which only runs
// when an admin address is configured.
package metric
