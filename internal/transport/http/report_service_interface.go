package http

import (
	"context"

	"campaignpulse/internal/channel"
	"campaignpulse/internal/dashboard"
	"campaignpulse/internal/segment"
	api "campaignpulse/pkg/contracts/api/v1"
)

// ReportServiceInterface defines the read operations over a published run
type ReportServiceInterface interface {
	Summary(ctx context.Context) (*api.SummaryResponse, error)
	CohortMatrix(ctx context.Context, req api.CohortMatrixRequest) (*api.CohortMatrixResponse, error)
	RFM(ctx context.Context, req api.RFMListRequest) ([]segment.RFM, error)
	Clusters(ctx context.Context) (*api.ClustersResponse, error)
	Channels(ctx context.Context, req api.ChannelListRequest) ([]channel.Metrics, error)
	Significance(ctx context.Context) ([]channel.SignificanceTest, error)
	Recommendations(ctx context.Context, req api.ChannelListRequest) ([]channel.Recommendation, error)
	Dashboard(ctx context.Context) (*dashboard.Dataset, error)
}
