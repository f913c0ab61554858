// Package server implements the KUMO bridge: an HTTP and websocket front for
// one router.
//
// The bridge owns a logged-in kumo.Client. On start it reads the full router
// state into a state.Mirror, subscribes to every notification and starts the
// poll loop. Each notification is applied to the mirror and broadcast to
// websocket clients. After a topology reset the mirror is reloaded and a new
// snapshot is broadcast.
//
// # Endpoints
//
//	GET  /api/state   mirror snapshot
//	POST /api/route   {"destination": 3, "source": 1}
//	POST /api/lock    {"destination": 3, "locked": true}
//	POST /api/label   {"type": "source", "port": 1, "line": 1, "text": "CAM 1"}
//	POST /api/poll    run one poll cycle now
//	GET  /ws          snapshot, then one message per notification
//	GET  /metrics     Prometheus metrics
//	GET  /healthz     200 while the router is reachable, 503 otherwise
//
// # Websocket Messages
//
//	{"type": "snapshot", "payload": {...state.Snapshot...}}
//	{"type": "notification", "payload": {"kind": "matrix", "matrix": {"1": [2, 3]}}}
//
// # Command Protection
//
// Commands (route, lock, label, poll) are rate limited per client IP. Route,
// lock and label also pass through a circuit breaker that opens after
// consecutive retryable failures (network errors and 5xx answers); while it
// is open they fail fast with 503.
// Routing a locked destination is refused with 409.
//
// # Graceful Shutdown
//
// Start handles SIGINT and SIGTERM:
//  1. Stop the poll loop and drop the subscription
//  2. Close websocket clients with a normal close frame
//  3. Wait for in-flight HTTP requests, up to ShutdownTimeout
package server
