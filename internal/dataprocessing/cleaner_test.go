package dataprocessing

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaignpulse/internal/shared/testutil"
	"campaignpulse/pkg/contracts/domain"
)

func f64(v float64) *float64 { return &v }

// raw builds a valid raw record that mutate may then damage
func raw(id string, mutate ...func(*domain.RawRecord)) domain.RawRecord {
	r := testutil.NewRecord(id).ToRaw(0)
	for _, m := range mutate {
		m(&r)
	}
	return r
}

func clean(t *testing.T, records ...domain.RawRecord) *CleanResult {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	res, err := NewCleaner(logger).Clean(context.Background(), records)
	require.NoError(t, err)
	return res
}

func warningFor(s domain.CleaningSummary, kind domain.RepairKind, column string) (domain.DataQualityWarning, bool) {
	for _, w := range s.Repairs {
		if w.Kind == kind && w.Column == column {
			return w, true
		}
	}
	return domain.DataQualityWarning{}, false
}

func TestCleaner_DerivedFeatures(t *testing.T) {
	res := clean(t,
		raw("1", func(r *domain.RawRecord) { r.Duration = "30 days"; r.EngagementScore = f64(8) }),
		raw("2", func(r *domain.RawRecord) { r.Duration = "5"; r.EngagementScore = f64(2) }),
		raw("3", func(r *domain.RawRecord) { r.Duration = "60 days"; r.EngagementScore = f64(5) }),
	)
	require.Len(t, res.Records, 3)

	first := res.Records[0]
	assert.Equal(t, 30, first.DurationDays)
	assert.Equal(t, domain.DurationMedium, first.DurationCategory)
	assert.Equal(t, domain.EngagementHigh, first.EngagementCategory)
	assert.InDelta(t, 506.0/1922.0, first.EngagementRate, 1e-12)
	assert.Equal(t, 1, first.Month)
	assert.Equal(t, 1, first.Quarter)
	assert.Equal(t, 2021, first.Year)

	assert.Equal(t, domain.DurationShort, res.Records[1].DurationCategory)
	assert.Equal(t, domain.EngagementLow, res.Records[1].EngagementCategory)
	assert.Equal(t, domain.DurationLong, res.Records[2].DurationCategory)
	assert.Equal(t, domain.EngagementMedium, res.Records[2].EngagementCategory)

	assert.Equal(t, domain.DerivedFeatures, res.Summary.DerivedFeaturesAdded)
}

func TestCategories(t *testing.T) {
	durations := map[int]string{0: "Unknown", 1: "Short", 7: "Short", 8: "Medium", 30: "Medium", 31: "Long"}
	for days, want := range durations {
		assert.Equal(t, want, DurationCategory(days), days)
	}
	scores := map[int]string{0: "Unknown", 1: "Low", 3: "Low", 4: "Medium", 6: "Medium", 7: "High", 10: "High"}
	for score, want := range scores {
		assert.Equal(t, want, EngagementCategory(score), score)
	}
}

func TestCleaner_ImputesWithPreImputationMedian(t *testing.T) {
	res := clean(t,
		raw("1", func(r *domain.RawRecord) { r.Clicks = f64(10) }),
		raw("2", func(r *domain.RawRecord) { r.Clicks = nil }),
		raw("3", func(r *domain.RawRecord) { r.Clicks = f64(30) }),
		raw("4", func(r *domain.RawRecord) { r.Clicks = f64(20) }),
		raw("5", func(r *domain.RawRecord) { r.Clicks = nil; r.Channel = ""; r.TargetAudience = "" }),
	)

	assert.Equal(t, int64(20), res.Records[1].Clicks)
	assert.Equal(t, int64(20), res.Records[4].Clicks)
	assert.Equal(t, domain.UnknownCategory, res.Records[4].Channel)
	assert.Equal(t, domain.UnknownCategory, res.Records[4].TargetAudience)

	w, ok := warningFor(res.Summary, domain.RepairMissing, domain.ColClicks)
	require.True(t, ok)
	assert.Equal(t, 2, w.Count)
	assert.Equal(t, "20", w.Replacement)

	w, ok = warningFor(res.Summary, domain.RepairMissing, domain.ColChannel)
	require.True(t, ok)
	assert.Equal(t, 1, w.Count)
}

func TestCleaner_AllNullColumnFallsBackToZero(t *testing.T) {
	res := clean(t,
		raw("1", func(r *domain.RawRecord) { r.ROI = nil }),
		raw("2", func(r *domain.RawRecord) { r.ROI = nil }),
	)
	for _, r := range res.Records {
		assert.Zero(t, r.ROI)
	}
}

func TestCleaner_MissingAndInvalidAreDistinctRepairs(t *testing.T) {
	res := clean(t,
		raw("1", func(r *domain.RawRecord) { r.Clicks = f64(-5) }),
		raw("2", func(r *domain.RawRecord) { r.Clicks = nil }),
		raw("3", func(r *domain.RawRecord) { r.Clicks = f64(10) }),
		raw("4", func(r *domain.RawRecord) { r.Clicks = f64(20) }),
	)

	// pre-imputation median of {-5, 10, 20} is 10; post-imputation median
	// of {-5, 10, 10, 20} is also 10
	clicks := []int64{}
	for _, r := range res.Records {
		clicks = append(clicks, r.Clicks)
	}
	assert.Equal(t, []int64{10, 10, 10, 20}, clicks)

	missing, ok := warningFor(res.Summary, domain.RepairMissing, domain.ColClicks)
	require.True(t, ok)
	assert.Equal(t, 1, missing.Count)

	negative, ok := warningFor(res.Summary, domain.RepairNegative, domain.ColClicks)
	require.True(t, ok)
	assert.Equal(t, 1, negative.Count)
	assert.Equal(t, "10", negative.Replacement)
}

func TestCleaner_RangeRepairs(t *testing.T) {
	res := clean(t,
		raw("1", func(r *domain.RawRecord) { r.ConversionRate = f64(1.5) }),
		raw("2", func(r *domain.RawRecord) { r.ConversionRate = f64(0.1) }),
		raw("3", func(r *domain.RawRecord) { r.ConversionRate = f64(0.2); r.EngagementScore = f64(12) }),
		raw("4", func(r *domain.RawRecord) { r.AcquisitionCost = f64(-100) }),
		raw("5", func(r *domain.RawRecord) { r.Impressions = f64(0) }),
	)

	// conversion values {1.5, 0.1, 0.2, 0.04, 0.04} have median 0.1
	assert.Equal(t, 0.1, res.Records[0].ConversionRate)
	assert.Equal(t, 6, res.Records[2].EngagementScore)
	assert.Zero(t, res.Records[3].AcquisitionCost)
	assert.Zero(t, res.Records[4].EngagementRate)

	for _, tc := range []struct {
		kind   domain.RepairKind
		column string
	}{
		{domain.RepairOutOfRange, domain.ColConversionRate},
		{domain.RepairOutOfRange, domain.ColEngagementScore},
		{domain.RepairNegative, domain.ColAcquisitionCost},
		{domain.RepairOutOfRange, domain.ColImpressions},
	} {
		w, ok := warningFor(res.Summary, tc.kind, tc.column)
		require.True(t, ok, "%s %s", tc.kind, tc.column)
		assert.Equal(t, 1, w.Count)
	}
}

func TestCleaner_OutputSatisfiesBounds(t *testing.T) {
	res := clean(t,
		raw("1", func(r *domain.RawRecord) { r.ConversionRate = f64(-0.3); r.Clicks = f64(-1) }),
		raw("2", func(r *domain.RawRecord) { r.ConversionRate = f64(3); r.Impressions = f64(-40) }),
		raw("3", func(r *domain.RawRecord) { r.EngagementScore = f64(-2); r.AcquisitionCost = f64(-1) }),
		raw("4", func(r *domain.RawRecord) { r.ConversionRate = nil; r.EngagementScore = nil }),
		raw("5", func(r *domain.RawRecord) { r.Duration = "-3" }),
	)

	for _, r := range res.Records {
		assert.GreaterOrEqual(t, r.ConversionRate, 0.0)
		assert.LessOrEqual(t, r.ConversionRate, 1.0)
		assert.GreaterOrEqual(t, r.AcquisitionCost, 0.0)
		assert.GreaterOrEqual(t, r.Clicks, int64(0))
		assert.GreaterOrEqual(t, r.Impressions, int64(0))
		assert.GreaterOrEqual(t, r.EngagementScore, 0)
		assert.LessOrEqual(t, r.EngagementScore, 10)
		assert.GreaterOrEqual(t, r.DurationDays, 0)
	}
}

func TestCleaner_Deduplicate(t *testing.T) {
	res := clean(t,
		raw("1", func(r *domain.RawRecord) { r.ROI = f64(1) }),
		raw("2"),
		raw("1", func(r *domain.RawRecord) { r.ROI = f64(2) }),
		raw("1", func(r *domain.RawRecord) { r.ROI = f64(3) }),
	)

	require.Len(t, res.Records, 2)
	assert.Equal(t, "1", res.Records[0].ID)
	assert.Equal(t, 1.0, res.Records[0].ROI, "first occurrence wins")
	assert.Equal(t, 4, res.Summary.InitialRows)
	assert.Equal(t, 2, res.Summary.FinalRows)
	assert.Equal(t, 2, res.Summary.RowsRemoved)
	assert.Equal(t, 2, res.Summary.RepairCount(domain.RepairDuplicate))
}

func TestCleaner_Idempotent(t *testing.T) {
	first := clean(t,
		raw("1", func(r *domain.RawRecord) { r.Channel = "google ads"; r.Clicks = nil }),
		raw("2", func(r *domain.RawRecord) { r.ConversionRate = f64(4) }),
		raw("1"),
		raw("3", func(r *domain.RawRecord) { r.Duration = "" }),
	)

	again := make([]domain.RawRecord, len(first.Records))
	for i, r := range first.Records {
		again[i] = r.ToRaw(i + 2)
	}
	second := clean(t, again...)

	assert.Zero(t, second.Summary.RowsRemoved)
	assert.Zero(t, second.Summary.RepairCount(domain.RepairDuplicate))
	assert.Empty(t, second.Summary.Repairs)
	assert.Equal(t, first.Records, second.Records)
}

func TestCleaner_DropsUnrepairableRows(t *testing.T) {
	res := clean(t,
		raw("1"),
		raw("", func(r *domain.RawRecord) {}),
		raw("3", func(r *domain.RawRecord) { r.Date = nil }),
	)

	require.Len(t, res.Records, 1)
	assert.Equal(t, 2, res.Summary.RowsRemoved)
	assert.Equal(t, 2, res.Summary.RepairCount(domain.RepairUnrepairable))
}

func TestCleaner_DoesNotMutateInput(t *testing.T) {
	input := []domain.RawRecord{
		raw("1", func(r *domain.RawRecord) { r.Clicks = nil; r.Channel = "youtube" }),
		raw("2"),
	}
	_ = clean(t, input...)

	assert.Nil(t, input[0].Clicks)
	assert.Equal(t, "youtube", input[0].Channel)
}

func TestCleaner_LogsRepairs(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	_, err := NewCleaner(logger).Clean(context.Background(), []domain.RawRecord{
		raw("1"), raw("1"),
	})
	require.NoError(t, err)

	assert.True(t, logs.ContainsAttr("kind", string(domain.RepairDuplicate)))
	assert.True(t, logs.ContainsAttr("component", "cleaner"))
	assert.True(t, logs.ContainsMessage("cleaning complete"))
}

func TestCleaner_MergesCaseVariants(t *testing.T) {
	tests := []struct {
		name     string
		channels []string
		want     map[string]int
	}{
		{
			name:     "brand spelling first",
			channels: []string{"YouTube", "youtube", "YOUTUBE", "TikTok", "tiktok"},
			want:     map[string]int{"YouTube": 3, "TikTok": 2},
		},
		{
			name:     "brand spelling last",
			channels: []string{"youtube", "YOUTUBE", "YouTube"},
			want:     map[string]int{"YouTube": 3},
		},
		{
			name:     "no brand spelling",
			channels: []string{"google ads", "GOOGLE ADS", "Google  ads"},
			want:     map[string]int{"Google Ads": 3},
		},
		{
			name:     "lower first letter raised",
			channels: []string{"linkedIn", "LINKEDIN"},
			want:     map[string]int{"LinkedIn": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]domain.RawRecord, len(tt.channels))
			for i, ch := range tt.channels {
				records[i] = raw(strconv.Itoa(i+1), func(r *domain.RawRecord) { r.Channel = ch })
			}

			res := clean(t, records...)
			assert.Equal(t, tt.want, Summarize(res.Records).Channels)
		})
	}
}

func TestCleaner_HugeCountsAreRepaired(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	res, err := NewCleaner(logger).Clean(context.Background(), []domain.RawRecord{
		raw("1", func(r *domain.RawRecord) { r.Impressions = f64(1e30) }),
		raw("2", func(r *domain.RawRecord) { r.Impressions = f64(2000); r.Clicks = f64(1e19) }),
		raw("3", func(r *domain.RawRecord) { r.Impressions = f64(4000) }),
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 3)

	// impressions {1e30, 2000, 4000} have median 4000
	assert.Equal(t, int64(4000), res.Records[0].Impressions)
	assert.Equal(t, int64(506), res.Records[1].Clicks)
	for _, column := range []string{domain.ColImpressions, domain.ColClicks} {
		w, ok := warningFor(res.Summary, domain.RepairOutOfRange, column)
		require.True(t, ok, column)
		assert.Equal(t, 1, w.Count)
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"google ads":        "Google Ads",
		"SOCIAL MEDIA":      "Social Media",
		"YouTube":           "YouTube",
		"linkedIn":          "LinkedIn",
		"health & wellness": "Health & Wellness",
		"  new   york ":     "New York",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, TitleCase(in), in)
	}
}

func TestSummarize(t *testing.T) {
	records := testutil.ScenarioRecords()
	s := Summarize(records)

	assert.Equal(t, 5, s.TotalCampaigns)
	assert.Equal(t, map[string]int{"Google Ads": 2, "YouTube": 3}, s.Channels)
	assert.Equal(t, testutil.Date(2021, 1, 1), s.DateRange.Start)
	assert.Equal(t, testutil.Date(2021, 4, 20), s.DateRange.End)
	assert.InDelta(t, (6.29+5.61+7.18+5.55+6.5)/5, s.AvgROI, 1e-12)
	assert.Equal(t, int64(5*506), s.TotalClicks)

	empty := Summarize(nil)
	assert.Zero(t, empty.TotalCampaigns)
	assert.NotNil(t, empty.Channels)
}
