// Package httpserver provides a thin wrapper around net/http.Server with
// graceful shutdown, env-based configuration, and health check handlers.
package httpserver
