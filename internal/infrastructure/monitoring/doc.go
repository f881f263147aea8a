/*
Package monitoring provides Prometheus metrics for the worker view server.

# Overview

Each Metrics value owns a private registry, so tests and multiple servers
in one process never collide on registration.

# Metrics

  - HTTP requests (count and latency by route pattern)
  - Background roots (active, total started)
  - Commits, encoded snapshot size and snapshot encode latency
  - Click dispatches by result (hit, miss) and malformed inbound messages
  - WebSocket connections and messages by direction

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordCommit(len(payload), encodeTime)
	metrics.RecordDispatch(found)
*/
package monitoring
