// Package http contains the HTTP handlers for the monitoring dashboard
// API. Handlers translate between the wire format and the service
// layer, and report failures as RFC 7807 problem details.
package http
