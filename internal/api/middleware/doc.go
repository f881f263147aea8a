// Package middleware holds the gin middleware shared by the HTTP API:
// CORS for browser foregrounds and per-client rate limiting of stream
// upgrades.
package middleware
