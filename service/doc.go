// Package service orchestrates the core components of the
// matching engine — per-symbol routing, the command journal,
// and the trade outbox.
//
// It provides a clean API for submitting, cancelling, and
// querying orders, decoupled from the HTTP transport.
package service
