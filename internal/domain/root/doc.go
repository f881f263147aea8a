// Package root keeps the registry of live roots, one per connected
// foreground. HTTP handlers use it to list roots and read their latest
// snapshot without touching the background loop.
package root
