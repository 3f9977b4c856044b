// Package confloader loads configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Overrides (command-line flags, passed as a flat map)
//  2. Environment variables (AVDS_ prefix)
//  3. Configuration file (YAML)
//  4. Defaults already present in the target struct
//
// Watcher reports edits to the configuration file so selected settings can
// be re-applied while the server runs.
package confloader
