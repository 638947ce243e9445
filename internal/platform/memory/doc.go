// Package memory provides process-local implementations of the store
// interfaces. They back the "memory" storage driver during development and
// tests. NewEphemeralSessionStore backs sessions of disposable decks: they
// are never persisted and are evicted after sitting idle for the store's TTL.
package memory
