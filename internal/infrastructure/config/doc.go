// Package config provides 12-factor configuration management for workerview.
//
// Configuration is loaded from environment variables with defaults. A YAML
// or TOML file may be layered on top, and CLI flags override both.
//
// Configuration Sections:
//   - Server: listen address, allowed origins, shutdown timeout
//   - Logging: log level and output format
//   - RateLimit: per-IP limit on stream upgrades
//   - Worker: which app each background root renders
//   - Redis: cross-process transport
//
// Example Usage:
//
//	cfg, err := config.LoadFile("workerview.yaml")
//	fmt.Printf("Server running on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST, ALLOW_ORIGINS, SHUTDOWN_TIMEOUT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - WORKER_APP, WORKER_SCRIPT, WORKER_SCRIPT_TIMEOUT, WORKER_TICK_INTERVAL
//   - REDIS_ADDR, REDIS_CHANNEL
package config
