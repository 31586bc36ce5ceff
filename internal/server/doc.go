// Package server assembles and runs the sales dashboard.
//
// New opens the configured store (SQLite file or PostgreSQL), resolves the
// sales dataset source (local CSV or s3:// object), builds the auth service
// and the web UI, and mounts everything on one HTTP mux:
//
//   - GET /health: liveness, always 200
//   - GET /ready: 200 once the store answers and the dataset loads
//   - everything else: see package webui
//
// Run listens on server.http_addr and, when auth.sweep_interval is positive,
// periodically deletes expired sessions. Canceling the Run context shuts the
// server down within server.shutdown_timeout.
package server
