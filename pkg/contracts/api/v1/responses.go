package api

import (
	"time"

	"campaignpulse/pkg/contracts/domain"
)

// RunInfo identifies the run whose results are being served
type RunInfo struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	Status      domain.RunStatus `json:"status"`
	CompletedAt time.Time        `json:"completed_at"`
}

// SummaryResponse is returned by GET /api/v1/summary
type SummaryResponse struct {
	Run     RunInfo            `json:"run"`
	Summary domain.DataSummary `json:"summary"`
}

// CohortMatrixResponse is returned by GET /api/v1/cohorts/{metric}
type CohortMatrixResponse struct {
	Metric              string `json:"metric"`
	Matrix              any    `json:"matrix"`
	RowsWithoutBaseline int    `json:"rows_without_baseline,omitempty"`
}

// ListResponse wraps a list with its length
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NewListResponse wraps items
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}

// ClustersResponse is returned by GET /api/v1/segments/clusters
type ClustersResponse struct {
	RequestedK int     `json:"requested_k"`
	K          int     `json:"k"`
	Inertia    float64 `json:"inertia"`
	Iterations int     `json:"iterations"`
	Converged  bool    `json:"converged"`
	Clusters   any     `json:"clusters"`
}

// HealthResponse is returned by GET /healthz
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
