// Package http implements the read-only HTTP surface of the report server.
// Handlers parse and validate request parameters, call the services layer
// and render JSON; they hold no analysis logic.
//
// # Routes
//
//	GET /api/v1/summary                    dataset statistics and cleaning report
//	GET /api/v1/cohorts/{metric}           retention, conversion or roi matrix
//	GET /api/v1/segments/rfm               RFM table (sort_by, order, limit)
//	GET /api/v1/segments/clusters          k-means outcome and profiles
//	GET /api/v1/channels                   channel metrics (channel filter)
//	GET /api/v1/channels/significance      ANOVA per metric
//	GET /api/v1/channels/recommendations   advisory messages (channel filter)
//	GET /api/v1/dashboard                  dashboard dataset
//	GET /healthz                           health
//	GET /metrics                           Prometheus exposition
//
// # Error Handling
//
// Every error is rendered as RFC 7807 problem details by
// errors.ErrorHandler, for example:
//
//	{
//	    "type": "/errors/report/not-found",
//	    "title": "Not Found",
//	    "status": 404,
//	    "detail": "Analysis report not available",
//	    "instance": "/api/v1/summary"
//	}
package http
