// Package book implements a single-instrument limit order book with
// price-time priority matching, partial fills, and lazy cancellation.
//
// The package is pure domain logic: no I/O, no locking, no transport.
// Coordination with journaling, event export, and per-symbol routing
// lives in the engine and service packages.
package book
