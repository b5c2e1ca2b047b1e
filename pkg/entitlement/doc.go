// Package entitlement defines the per-user entitlement record, the narrow
// document-store contract it is persisted through, and the lazy-expiry
// refresh that every premium-gated read path goes through.
package entitlement
