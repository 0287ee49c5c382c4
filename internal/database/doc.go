// Package database provides PostgreSQL connectivity and the user
// directory used to resolve a connecting user's company scope.
//
// Uses pgx for connection pooling with a QueryTracer for metrics.
package database
