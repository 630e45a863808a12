package services

import "errors"

// Report service errors
var (
	ErrReportNotReady  = errors.New("analysis report not available")
	ErrChannelNotFound = errors.New("channel not found")
	ErrUnknownMatrix   = errors.New("unknown cohort matrix")
)
