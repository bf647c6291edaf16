// Package app assembles the dashboard server: it loads configuration,
// initializes logging and telemetry, constructs the session store,
// services, websocket hub, and HTTP router, and owns startup and
// graceful shutdown.
package app
