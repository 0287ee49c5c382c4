// Package broadcast implements the room membership registry and fanout hub
// using the actor pattern.
//
// The Hub owns the room -> sessions mapping in a single goroutine fed by a
// command channel (no mutexes), so join/leave/fanout are atomic with
// respect to each other and contention on one room never blocks another.
// Per-connection write goroutines absorb slow clients; a session whose
// send buffer fills is evicted rather than stalling the fanout. Messages
// arrive from the bus, so a publish on any gateway instance reaches the
// sessions of all instances.
package broadcast
