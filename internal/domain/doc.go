// Package domain defines the core domain types and interfaces for the
// realtime update gateway.
//
// This package contains concept-oriented files (identity.go, room.go,
// event.go, bus.go, directory.go) with shared types and cross-cutting
// interfaces. No implementation code - just contracts. Prevents circular
// imports by keeping interfaces on the consumer side.
package domain
