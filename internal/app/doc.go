// Package app wires the report server: configuration, telemetry, the
// analysis pipeline, the report services and the HTTP router.
//
// # Initialization Flow
//
//	1. Resolve and create the output directories
//	2. Initialize OpenTelemetry and the pipeline metrics
//	3. Create the report and health services
//	4. Build the chi router and the HTTP server
//
// Run then starts listening, analyzes the configured input once, publishes
// the result and serves it until SIGINT or SIGTERM.
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
package app
