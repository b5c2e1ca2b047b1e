// Package redis provides helpers for connecting to a Redis server with
// retry behavior, env-based configuration, and a readiness healthcheck.
package redis
