// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: coloured console output for humans
//
// Every background root gets a child logger carrying its root_id so that
// commit, dispatch and transport lines can be correlated per connection.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	rootLog := logger.ForRoot(rootID)
//	rootLog.Debug("commit", zap.Int("snapshot_bytes", n))
package logging
