// Package bootstrap starts and stops the server's listeners.
//
// Each listener is an independent track that ends in one state:
//
//	http   INIT -> RUNNING | FAILED
//	https  INIT -> SKIPPED | RUNNING | FAILED
//	admin  INIT -> RUNNING | FAILED     (only when metrics.addr is set)
//
// A failing track never stops another one. Binding happens synchronously in
// Start so every outcome is reported before it returns; serving happens in
// background goroutines until Shutdown moves RUNNING tracks to CLOSED.
package bootstrap
