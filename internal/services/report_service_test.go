package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaignpulse/internal/channel"
	"campaignpulse/internal/cohort"
	"campaignpulse/internal/dashboard"
	"campaignpulse/internal/dataprocessing"
	"campaignpulse/internal/pipeline"
	"campaignpulse/internal/segment"
	"campaignpulse/internal/shared/testutil"
	api "campaignpulse/pkg/contracts/api/v1"
	"campaignpulse/pkg/contracts/domain"
)

func completedState(t *testing.T) *pipeline.State {
	t.Helper()
	state := pipeline.NewState("run-1", "campaigns.csv", domain.RunParameters{Clusters: 2})

	retention := dataprocessing.NewPivot()
	retention.Set("2021-01", 0, 1)
	retention.Set("2021-01", 1, 0.5)

	records := []domain.CampaignRecord{testutil.NewRecord("1"), testutil.NewRecord("2")}

	state.Update(func(st *pipeline.State) {
		st.Status = domain.RunStatusCompleted
		st.EndTime = testutil.Date(2024, time.May, 1)
		st.Dataset = domain.DatasetSummary{TotalCampaigns: 2}
		st.Cohort = &cohort.Result{Retention: retention, Conversion: dataprocessing.NewPivot(), ROI: dataprocessing.NewPivot(), RowsWithoutBaseline: 1}
		st.Segment = &segment.Result{
			RFM: []segment.RFM{
				{TargetAudience: "Men 18-24", RecencyDays: 30, Frequency: 4, Monetary: 100},
				{TargetAudience: "Women 25-34", RecencyDays: 10, Frequency: 2, Monetary: 300},
				{TargetAudience: "All Ages", RecencyDays: 20, Frequency: 9, Monetary: 200},
			},
			RequestedK: 3,
			K:          2,
			Converged:  true,
		}
		st.Channel = &channel.Result{
			Metrics: []channel.Metrics{{Channel: "Email", Campaigns: 1}, {Channel: "YouTube", Campaigns: 1}},
			Significance: []channel.SignificanceTest{
				{Metric: domain.ColROI, Groups: 2},
			},
			Recommendations: []channel.Recommendation{
				{Channel: "Email", Messages: []string{"a"}},
				{Channel: "YouTube", Messages: []string{"b"}},
			},
		}
		st.Dashboard = dashboard.Build(records)
	})
	return state
}

func newService(t *testing.T) *ReportService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	svc := NewReportService(logger)
	require.True(t, svc.Publish(completedState(t)))
	return svc
}

func TestReportService_NotReady(t *testing.T) {
	svc := NewReportService(nil)
	ctx := context.Background()

	assert.False(t, svc.Ready())
	assert.Empty(t, svc.RunID())

	_, err := svc.Summary(ctx)
	assert.ErrorIs(t, err, ErrReportNotReady)
	_, err = svc.RFM(ctx, api.RFMListRequest{})
	assert.ErrorIs(t, err, ErrReportNotReady)
	_, err = svc.Dashboard(ctx)
	assert.ErrorIs(t, err, ErrReportNotReady)
}

func TestReportService_PublishRejectsFailedRun(t *testing.T) {
	svc := newService(t)

	failed := pipeline.NewState("run-2", "campaigns.csv", domain.RunParameters{})
	failed.Update(func(st *pipeline.State) { st.Status = domain.RunStatusFailed })

	assert.False(t, svc.Publish(failed))
	assert.False(t, svc.Publish(nil))
	assert.Equal(t, "run-1", svc.RunID())
}

func TestReportService_Summary(t *testing.T) {
	svc := newService(t)

	resp, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", resp.Run.ID)
	assert.Equal(t, domain.RunStatusCompleted, resp.Run.Status)
	assert.Equal(t, 2, resp.Summary.Dataset.TotalCampaigns)
}

func TestReportService_CohortMatrix(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	resp, err := svc.CohortMatrix(ctx, api.CohortMatrixRequest{Metric: api.CohortMetricRetention})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.RowsWithoutBaseline)
	matrix, ok := resp.Matrix.(*dataprocessing.Pivot)
	require.True(t, ok)
	v, ok := matrix.Get("2021-01", 1)
	require.True(t, ok)
	assert.Equal(t, 0.5, v)

	resp, err = svc.CohortMatrix(ctx, api.CohortMatrixRequest{Metric: api.CohortMetricROI})
	require.NoError(t, err)
	assert.Zero(t, resp.RowsWithoutBaseline)

	_, err = svc.CohortMatrix(ctx, api.CohortMatrixRequest{Metric: "ltv"})
	assert.ErrorIs(t, err, ErrUnknownMatrix)
}

func TestReportService_RFM(t *testing.T) {
	svc := newService(t)

	audiences := func(rows []segment.RFM) []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r.TargetAudience
		}
		return out
	}

	tests := []struct {
		name string
		req  api.RFMListRequest
		want []string
	}{
		{"default order", api.RFMListRequest{}, []string{"All Ages", "Men 18-24", "Women 25-34"}},
		{"recency", api.RFMListRequest{SortBy: "recency_days"}, []string{"Women 25-34", "All Ages", "Men 18-24"}},
		{"monetary desc", api.RFMListRequest{SortBy: "monetary", Order: "desc"}, []string{"Women 25-34", "All Ages", "Men 18-24"}},
		{"frequency limited", api.RFMListRequest{SortBy: "frequency", Order: "desc", Limit: 1}, []string{"All Ages"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := svc.RFM(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, audiences(rows))
		})
	}
}

func TestReportService_RFMDoesNotMutateState(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.RFM(ctx, api.RFMListRequest{SortBy: "monetary", Order: "desc"})
	require.NoError(t, err)

	rows, err := svc.RFM(ctx, api.RFMListRequest{SortBy: "target_audience"})
	require.NoError(t, err)
	assert.Equal(t, "All Ages", rows[0].TargetAudience)
}

func TestReportService_Channels(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	all, err := svc.Channels(ctx, api.ChannelListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := svc.Channels(ctx, api.ChannelListRequest{Channel: "youtube"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "YouTube", one[0].Channel)

	_, err = svc.Channels(ctx, api.ChannelListRequest{Channel: "Radio"})
	assert.ErrorIs(t, err, ErrChannelNotFound)

	recs, err := svc.Recommendations(ctx, api.ChannelListRequest{Channel: "Email"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"a"}, recs[0].Messages)

	_, err = svc.Recommendations(ctx, api.ChannelListRequest{Channel: "Radio"})
	assert.ErrorIs(t, err, ErrChannelNotFound)

	tests, err := svc.Significance(ctx)
	require.NoError(t, err)
	assert.Len(t, tests, 1)
}

func TestReportService_ClustersAndDashboard(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	clusters, err := svc.Clusters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, clusters.RequestedK)
	assert.Equal(t, 2, clusters.K)
	assert.Equal(t, []segment.ClusterProfile{}, clusters.Clusters)

	ds, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Summary.TotalCampaigns)
}

func TestHealthService(t *testing.T) {
	reports := NewReportService(nil)
	hs := NewHealthService("0.3.0", reports, nil)
	ctx := context.Background()

	status := hs.HealthCheck(ctx)
	assert.Equal(t, HealthDegraded, status.Status)
	assert.Empty(t, status.RunID)

	require.True(t, reports.Publish(completedState(t)))
	status = hs.HealthCheck(ctx)
	assert.Equal(t, HealthOK, status.Status)
	assert.Equal(t, "run-1", status.RunID)
	assert.Equal(t, "0.3.0", status.Version)

	info := hs.Version()
	assert.Equal(t, "0.3.0", info["version"])
	assert.Contains(t, info, "go_version")
}
