// Package application wires configuration into a running service: it opens
// the configured pack-size store, builds the calculator with its search
// limit, attaches Prometheus instrumentation and mounts the API, the
// metrics endpoint and the embedded browser UI on one HTTP server.
package application
