// Command workerview renders UIs on a background event loop and shows them
// in a foreground that never runs application code.
//
// Usage:
//
//	# HTTP API plus one root per WebSocket connection on /stream
//	workerview serve --config workerview.yaml
//
//	# background and foreground in one process, shown in the terminal
//	workerview demo --app counter
//
//	# background and foreground in separate processes over Redis
//	workerview worker --redis localhost:6379 --channel ui
//	workerview view --redis localhost:6379 --channel ui
//
//	# terminal foreground for a running server
//	workerview view --url ws://localhost:8000/stream
//
// Configuration comes from environment variables, optionally overlaid by
// a YAML or TOML file; flags win over both.
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
