// Package mongo provides helpers for connecting to MongoDB with retry
// behavior, env-based configuration, and a readiness healthcheck.
package mongo
