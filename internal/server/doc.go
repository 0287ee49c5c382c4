// Package server implements the HTTP server using Echo framework.
//
// Routes: websocket session endpoint (/ws/updates), internal announce
// bridge (/internal/announce), observability (/health, /metrics,
// /version). Handlers split by concern: handlers_ws.go,
// handlers_announce.go, handlers_health.go.
package server
