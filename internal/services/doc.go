// Package services sits between the HTTP handlers and the results of an
// analysis run. Handlers never touch pipeline state directly.
//
// # Available Services
//
//	- ReportService: read-only views over the latest completed run
//	- HealthService: liveness and readiness of the report server
//
// # Error Handling
//
// Services return the sentinel errors of errors.go; the transport layer
// maps them onto problem details:
//
//	- ErrReportNotReady when no completed run has been published
//	- ErrChannelNotFound when a channel filter matches nothing
//	- ErrUnknownMatrix for a cohort matrix name outside retention, conversion and roi
package services
