// Package services implements the business logic layer of the
// dashboard. It sits between the HTTP handlers and the aggregation
// pipeline, owning session-scoped working sets and the
// upload-and-recompute cycle.
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Sentinel errors mapped to API errors in the transport layer
//
// Working sets are session-scoped rather than process-global: each
// browser session holds its own uploaded data, keyed by a session
// identifier, so concurrent users never see each other's uploads.
package services
