// Package webhook authenticates inbound webhook payloads against a shared
// secret using HMAC-SHA256 over the raw request body.
package webhook
