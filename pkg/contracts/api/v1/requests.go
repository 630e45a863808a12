// Package api contains the HTTP contract of the report server.
// Version v1 represents the current stable API version.
package api

// Cohort matrix names accepted by the cohorts endpoint
const (
	CohortMetricRetention  = "retention"
	CohortMetricConversion = "conversion"
	CohortMetricROI        = "roi"
)

// CohortMatrixRequest selects one cohort matrix
type CohortMatrixRequest struct {
	Metric string `json:"metric" param:"metric" validate:"required,oneof=retention conversion roi"`
}

// RFMListRequest sorts and truncates the RFM table
type RFMListRequest struct {
	SortBy string `json:"sort_by" query:"sort_by" validate:"omitempty,oneof=target_audience recency_days frequency monetary"`
	Order  string `json:"order" query:"order" validate:"omitempty,oneof=asc desc"`
	Limit  int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=1000"`
}

// ChannelListRequest optionally narrows the channel listing
type ChannelListRequest struct {
	Channel string `json:"channel" query:"channel" validate:"omitempty,max=100"`
}
