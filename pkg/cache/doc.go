// Package cache provides a bounded, TTL-aware LRU cache intended as an
// explicit, injectable alternative to ambient process-level caches.
package cache
