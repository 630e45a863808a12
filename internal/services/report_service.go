package services

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"campaignpulse/internal/channel"
	"campaignpulse/internal/dashboard"
	"campaignpulse/internal/pipeline"
	"campaignpulse/internal/segment"
	api "campaignpulse/pkg/contracts/api/v1"
	"campaignpulse/pkg/contracts/domain"
)

// ReportService serves the results of the most recently published run
type ReportService struct {
	mu     sync.RWMutex
	state  *pipeline.State
	logger *slog.Logger
}

// NewReportService creates a report service with no published run
func NewReportService(logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{logger: logger.With(slog.String("service", "report"))}
}

// Publish replaces the served run. Only completed runs are accepted; a
// failed run leaves the previous one in place.
func (s *ReportService) Publish(state *pipeline.State) bool {
	if state == nil {
		return false
	}
	var status domain.RunStatus
	state.View(func(st *pipeline.State) { status = st.Status })
	if status != domain.RunStatusCompleted {
		s.logger.Warn("run not published",
			slog.String("run_id", state.RunID),
			slog.String("status", string(status)))
		return false
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.logger.Info("run published", slog.String("run_id", state.RunID))
	return true
}

// Ready reports whether a run is being served
func (s *ReportService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state != nil
}

// RunID returns the ID of the served run, empty when none
func (s *ReportService) RunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return ""
	}
	return s.state.RunID
}

// view runs fn against the served run
func (s *ReportService) view(fn func(*pipeline.State) error) error {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	if state == nil {
		return ErrReportNotReady
	}
	var err error
	state.View(func(st *pipeline.State) { err = fn(st) })
	return err
}

func runInfo(st *pipeline.State) api.RunInfo {
	return api.RunInfo{ID: st.RunID, Source: st.Source, Status: st.Status, CompletedAt: st.EndTime}
}

// Summary returns the dataset statistics and the cleaning report
func (s *ReportService) Summary(ctx context.Context) (*api.SummaryResponse, error) {
	var out *api.SummaryResponse
	err := s.view(func(st *pipeline.State) error {
		out = &api.SummaryResponse{
			Run:     runInfo(st),
			Summary: domain.DataSummary{Dataset: st.Dataset, Cleaning: st.Cleaning},
		}
		return nil
	})
	return out, err
}

// CohortMatrix returns one of the cohort pivots
func (s *ReportService) CohortMatrix(ctx context.Context, req api.CohortMatrixRequest) (*api.CohortMatrixResponse, error) {
	var out *api.CohortMatrixResponse
	err := s.view(func(st *pipeline.State) error {
		if st.Cohort == nil {
			return ErrReportNotReady
		}
		matrix, ok := st.Cohort.Matrix(req.Metric)
		if !ok {
			return ErrUnknownMatrix
		}
		out = &api.CohortMatrixResponse{Metric: req.Metric, Matrix: matrix}
		if req.Metric == api.CohortMetricRetention {
			out.RowsWithoutBaseline = st.Cohort.RowsWithoutBaseline
		}
		return nil
	})
	return out, err
}

// RFM returns the per-audience RFM table, sorted and truncated as requested.
// The default order is by audience ascending.
func (s *ReportService) RFM(ctx context.Context, req api.RFMListRequest) ([]segment.RFM, error) {
	var out []segment.RFM
	err := s.view(func(st *pipeline.State) error {
		if st.Segment == nil {
			return ErrReportNotReady
		}
		out = slices.Clone(st.Segment.RFM)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, rfmOrder(req.SortBy))
	if req.Order == "desc" {
		slices.Reverse(out)
	}
	if req.Limit > 0 && req.Limit < len(out) {
		out = out[:req.Limit]
	}
	return out, nil
}

func rfmOrder(sortBy string) func(a, b segment.RFM) int {
	switch sortBy {
	case "recency_days":
		return func(a, b segment.RFM) int { return cmp.Compare(a.RecencyDays, b.RecencyDays) }
	case "frequency":
		return func(a, b segment.RFM) int { return cmp.Compare(a.Frequency, b.Frequency) }
	case "monetary":
		return func(a, b segment.RFM) int { return cmp.Compare(a.Monetary, b.Monetary) }
	}
	return func(a, b segment.RFM) int { return cmp.Compare(a.TargetAudience, b.TargetAudience) }
}

// Clusters returns the k-means outcome and cluster profiles
func (s *ReportService) Clusters(ctx context.Context) (*api.ClustersResponse, error) {
	var out *api.ClustersResponse
	err := s.view(func(st *pipeline.State) error {
		if st.Segment == nil {
			return ErrReportNotReady
		}
		r := st.Segment
		clusters := r.Clusters
		if clusters == nil {
			clusters = []segment.ClusterProfile{}
		}
		out = &api.ClustersResponse{
			RequestedK: r.RequestedK,
			K:          r.K,
			Inertia:    r.Inertia,
			Iterations: r.Iterations,
			Converged:  r.Converged,
			Clusters:   clusters,
		}
		return nil
	})
	return out, err
}

// Channels returns the per-channel metrics, optionally narrowed to one
// channel matched case-insensitively
func (s *ReportService) Channels(ctx context.Context, req api.ChannelListRequest) ([]channel.Metrics, error) {
	var out []channel.Metrics
	err := s.view(func(st *pipeline.State) error {
		if st.Channel == nil {
			return ErrReportNotReady
		}
		for _, m := range st.Channel.Metrics {
			if req.Channel == "" || strings.EqualFold(m.Channel, req.Channel) {
				out = append(out, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if req.Channel != "" && len(out) == 0 {
		return nil, ErrChannelNotFound
	}
	return out, nil
}

// Significance returns the ANOVA outcome per tested metric
func (s *ReportService) Significance(ctx context.Context) ([]channel.SignificanceTest, error) {
	var out []channel.SignificanceTest
	err := s.view(func(st *pipeline.State) error {
		if st.Channel == nil {
			return ErrReportNotReady
		}
		out = slices.Clone(st.Channel.Significance)
		return nil
	})
	return out, err
}

// Recommendations returns the advisory messages, optionally for one channel
func (s *ReportService) Recommendations(ctx context.Context, req api.ChannelListRequest) ([]channel.Recommendation, error) {
	var out []channel.Recommendation
	err := s.view(func(st *pipeline.State) error {
		if st.Channel == nil {
			return ErrReportNotReady
		}
		for _, rec := range st.Channel.Recommendations {
			if req.Channel == "" || strings.EqualFold(rec.Channel, req.Channel) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if req.Channel != "" && len(out) == 0 {
		return nil, ErrChannelNotFound
	}
	return out, nil
}

// Dashboard returns the dashboard dataset
func (s *ReportService) Dashboard(ctx context.Context) (*dashboard.Dataset, error) {
	var out *dashboard.Dataset
	err := s.view(func(st *pipeline.State) error {
		if st.Dashboard == nil {
			return ErrReportNotReady
		}
		out = st.Dashboard
		return nil
	})
	return out, err
}
