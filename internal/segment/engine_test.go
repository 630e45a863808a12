package segment

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaignpulse/internal/shared/testutil"
	"campaignpulse/pkg/contracts/domain"
)

// grouped returns n records in each of three performance profiles
func grouped(n int) []domain.CampaignRecord {
	profiles := []struct {
		conversion, roi float64
		score           int
		clicks          int64
	}{
		{0.01, 1.0, 2, 100},
		{0.08, 4.5, 5, 900},
		{0.15, 8.0, 9, 1800},
	}

	var out []domain.CampaignRecord
	for p, prof := range profiles {
		for i := range n {
			id := string(rune('a'+p)) + string(rune('0'+i))
			out = append(out, testutil.NewRecord(id, func(r *domain.CampaignRecord) {
				r.ConversionRate = prof.conversion
				r.ROI = prof.roi
				r.EngagementScore = prof.score
				r.Clicks = prof.clicks
				r.Impressions = 2000
				r.TargetAudience = []string{"Men 18-24", "Women 25-34"}[i%2]
			}))
		}
	}
	return out
}

func newEngine(t *testing.T, cfg Config) (*Engine, *testutil.BufferedSlogHandler) {
	logger, logs := testutil.NewTestLogger(t)
	return NewEngine(cfg, logger), logs
}

func TestComputeRFM(t *testing.T) {
	records := []domain.CampaignRecord{
		testutil.NewRecord("1", func(r *domain.CampaignRecord) {
			r.TargetAudience, r.Date, r.AcquisitionCost = "A", testutil.Date(2021, 1, 1), 100
		}),
		testutil.NewRecord("2", func(r *domain.CampaignRecord) {
			r.TargetAudience, r.Date, r.AcquisitionCost = "A", testutil.Date(2021, 1, 10), 300
		}),
		testutil.NewRecord("3", func(r *domain.CampaignRecord) {
			r.TargetAudience, r.Date, r.AcquisitionCost = "B", testutil.Date(2021, 2, 1), 50
		}),
	}

	rfm := ComputeRFM(records, time.Date(2021, 2, 11, 12, 0, 0, 0, time.UTC))
	require.Len(t, rfm, 2)

	assert.Equal(t, "A", rfm[0].TargetAudience)
	assert.Equal(t, 32, rfm[0].RecencyDays)
	assert.Equal(t, 2, rfm[0].Frequency)
	assert.Equal(t, 400.0, rfm[0].Monetary)
	assert.Equal(t, 200.0, rfm[0].AvgSpend)
	assert.Equal(t, testutil.Date(2021, 1, 10), rfm[0].LastCampaign)

	assert.Equal(t, "B", rfm[1].TargetAudience)
	assert.Equal(t, 10, rfm[1].RecencyDays)
}

func TestAnalyze_ClustersSeparatedProfiles(t *testing.T) {
	e, _ := newEngine(t, Config{Clusters: 3, Seed: 42})
	records := grouped(4)

	res, err := e.Analyze(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 12)
	assert.Equal(t, 3, res.K)
	assert.Equal(t, 3, res.RequestedK)
	assert.True(t, res.Converged)

	for g := range 3 {
		base := res.Assignments[g*4].Cluster
		for i := 1; i < 4; i++ {
			assert.Equal(t, base, res.Assignments[g*4+i].Cluster, "profile %d", g)
		}
	}
	assert.NotEqual(t, res.Assignments[0].Cluster, res.Assignments[4].Cluster)
	assert.NotEqual(t, res.Assignments[4].Cluster, res.Assignments[8].Cluster)
	assert.NotEqual(t, res.Assignments[0].Cluster, res.Assignments[8].Cluster)

	require.Len(t, res.Clusters, 3)
	total := 0
	for _, c := range res.Clusters {
		assert.Equal(t, 4, c.Size)
		total += c.Size
	}
	assert.Equal(t, 12, total)

	low := res.Clusters[res.Assignments[0].Cluster]
	assert.InDelta(t, 0.01, low.ConversionRate, 1e-12)
	assert.InDelta(t, 1.0, low.ROI, 1e-12)
	assert.InDelta(t, 0.05, low.EngagementRate, 1e-12)
}

func TestAnalyze_Deterministic(t *testing.T) {
	records := grouped(5)
	records[3].ROI = 2.5
	records[7].ConversionRate = 0.11
	records[12].EngagementScore = 7

	run := func() []ClusterAssignment {
		e, _ := newEngine(t, Config{Clusters: 4, Seed: 7})
		res, err := e.Analyze(context.Background(), records)
		require.NoError(t, err)
		return res.Assignments
	}

	first := run()
	for range 3 {
		assert.Equal(t, first, run())
	}
	for _, a := range first {
		assert.GreaterOrEqual(t, a.Cluster, 0)
		assert.Less(t, a.Cluster, 4)
	}
}

func TestAnalyze_LowersKForFewDistinctPoints(t *testing.T) {
	e, logs := newEngine(t, Config{Clusters: 5, Seed: 42})
	records := []domain.CampaignRecord{
		testutil.NewRecord("1"), testutil.NewRecord("2"), testutil.NewRecord("3"),
	}

	res, err := e.Analyze(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 1, res.K)
	assert.Equal(t, 5, res.RequestedK)
	require.Len(t, res.Clusters, 1)
	assert.Equal(t, 3, res.Clusters[0].Size)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "lowering k")
}

func TestAnalyze_DefaultReferenceDate(t *testing.T) {
	e, _ := newEngine(t, Config{})
	fixed := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	res, err := e.Analyze(context.Background(), []domain.CampaignRecord{testutil.NewRecord("1")})
	require.NoError(t, err)
	assert.Equal(t, fixed, res.ReferenceDate)
	assert.Equal(t, 59, res.RFM[0].RecencyDays)
	assert.Equal(t, defaultClusters, res.RequestedK)
}

func TestAnalyze_Empty(t *testing.T) {
	e, _ := newEngine(t, Config{Clusters: 3})
	res, err := e.Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.K)
	assert.Empty(t, res.Assignments)
	assert.Empty(t, res.RFM)
	assert.Zero(t, res.Overall.Len())
}

func TestTables(t *testing.T) {
	e, _ := newEngine(t, Config{Clusters: 3, Seed: 42, ReferenceDate: testutil.Date(2021, 2, 1)})
	res, err := e.Analyze(context.Background(), grouped(2))
	require.NoError(t, err)

	tables := res.Tables()
	names := make([]string, len(tables))
	for i, tb := range tables {
		names[i] = tb.Name
	}
	assert.Equal(t, []string{
		"rfm_metrics", "cluster_statistics", "cluster_assignments",
		"performance_overall", "performance_by_channel", "performance_by_type",
		"trends_monthly", "trends_quarterly",
	}, names)

	rfm := tables[0]
	require.Equal(t, 2, rfm.Len())
	assert.Equal(t, []any{"Men 18-24", 31, 3, 48522.0, 16174.0}, rfm.Rows[0])

	overall := tables[3]
	assert.Equal(t, []string{domain.ColTargetAudience, "Conversion_Rate", "ROI", "Acquisition_Cost",
		"Engagement_Score", "Engagement_Rate", "Campaign_Count"}, overall.Header)

	monthly := tables[6]
	assert.Equal(t, []any{"Men 18-24", "2021-01"}, monthly.Rows[0][:2])
	assert.Equal(t, 3, tables[1].Len())
}
