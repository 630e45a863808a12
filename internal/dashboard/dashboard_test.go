package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaignpulse/internal/shared/testutil"
	"campaignpulse/pkg/contracts/domain"
)

func TestBuild(t *testing.T) {
	records := testutil.ScenarioRecords()
	records[4].Location = "Miami"
	records[4].DurationDays = 60
	records[4].DurationCategory = domain.DurationLong

	d := Build(records)

	assert.Equal(t, 5, d.Summary.TotalCampaigns)
	assert.Equal(t, int64(5*506), d.Summary.TotalClicks)
	assert.Equal(t, 5*16174.0, d.Summary.TotalAcquisitionCost)
	assert.Equal(t, 6.0, d.Summary.AvgEngagementScore)

	require.Len(t, d.ChannelPerformance, 2)
	youtube := d.ChannelPerformance[1]
	assert.Equal(t, "YouTube", youtube[domain.ColChannel])
	assert.Equal(t, 6.41, youtube[domain.ColROI])
	assert.Equal(t, float64(3*1922), youtube[domain.ColImpressions])

	require.Len(t, d.GeographicData, 2)
	assert.Equal(t, "Chicago", d.GeographicData[0][domain.ColLocation])
	assert.Equal(t, 4, d.GeographicData[0]["Campaign_Count"])

	assert.Len(t, d.DurationMetrics, 2)
	assert.Len(t, d.MonthlyTrends, 5)
	assert.Len(t, d.CampaignTypes, 1)
	assert.Len(t, d.SegmentPerformance, 1)

	_, err := json.Marshal(d)
	require.NoError(t, err)
}

func TestBuild_Empty(t *testing.T) {
	d := Build(nil)
	assert.Zero(t, d.Summary.TotalCampaigns)
	assert.Empty(t, d.ChannelPerformance)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"channel_performance":[]`)
}
