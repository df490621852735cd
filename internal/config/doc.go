// Package config resolves service settings from defaults, an optional dotenv
// file, environment variables, a YAML file and CLI flags, in increasing order
// of precedence. The result covers the HTTP server, rate limiting, pack-size
// storage, calculator limits and metrics.
package config
