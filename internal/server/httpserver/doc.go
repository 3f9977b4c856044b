// Package httpserver wraps net/http servers for the public and admin
// listeners.
//
// Binding and serving are separate steps: Listen reports a classified
// *BindError synchronously, and Serve then runs until Shutdown. The package
// also provides the middleware chain (Recover, RequestID, AccessLog,
// Metrics, RateLimit) and the routers that assemble it.
package httpserver
