// Package redis implements the Redis-backed infrastructure for multi-process
// deployments: the cross-instance fanout bus (Pub/Sub) and the gateway
// instance heartbeat store. All operations go through hooks that record
// metrics and apply circuit breaker protection.
package redis
