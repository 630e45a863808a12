package testutil

import (
	"bytes"
	"encoding/csv"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"campaignpulse/pkg/contracts/domain"
)

// CampaignRow is one raw input row keyed by column name
type CampaignRow map[string]string

// DefaultRow returns a fully populated, valid input row
func DefaultRow(id string) CampaignRow {
	return CampaignRow{
		domain.ColCampaignID:      id,
		domain.ColCompany:         "Innovate Industries",
		domain.ColCampaignType:    "Email",
		domain.ColTargetAudience:  "Men 18-24",
		domain.ColDuration:        "30 days",
		domain.ColChannel:         "Google Ads",
		domain.ColConversionRate:  "0.04",
		domain.ColAcquisitionCost: "$16,174.00",
		domain.ColROI:             "6.29",
		domain.ColLocation:        "Chicago",
		domain.ColLanguage:        "Spanish",
		domain.ColClicks:          "506",
		domain.ColImpressions:     "1922",
		domain.ColEngagementScore: "6",
		domain.ColCustomerSegment: "Health & Wellness",
		domain.ColDate:            "2021-01-01",
	}
}

// With returns a copy of the row with col set to value
func (r CampaignRow) With(col, value string) CampaignRow {
	out := maps.Clone(r)
	out[col] = value
	return out
}

// CampaignCSV renders rows under the sixteen required headers
func CampaignCSV(rows ...CampaignRow) string {
	return CampaignCSVWithHeader(domain.RequiredColumns, rows...)
}

// CampaignCSVWithHeader renders rows under an arbitrary header
func CampaignCSVWithHeader(header []string, rows ...CampaignRow) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	for _, r := range rows {
		line := make([]string, len(header))
		for i, col := range header {
			line[i] = r[col]
		}
		_ = w.Write(line)
	}
	w.Flush()
	return buf.String()
}

// WriteCampaignCSV writes rows to dir/name and returns the path
func WriteCampaignCSV(t *testing.T, dir, name string, rows ...CampaignRow) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(CampaignCSV(rows...)), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// Date returns midnight UTC on the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewRecord returns a cleaned record with consistent derived fields.
// Mutators run before the derived fields are recomputed.
func NewRecord(id string, mutate ...func(*domain.CampaignRecord)) domain.CampaignRecord {
	r := domain.CampaignRecord{
		ID:              id,
		Company:         "Innovate Industries",
		CampaignType:    "Email",
		TargetAudience:  "Men 18-24",
		DurationDays:    30,
		Channel:         "Google Ads",
		ConversionRate:  0.04,
		AcquisitionCost: 16174,
		ROI:             6.29,
		Location:        "Chicago",
		Language:        "Spanish",
		Clicks:          506,
		Impressions:     1922,
		EngagementScore: 6,
		CustomerSegment: "Health & Wellness",
		Date:            Date(2021, time.January, 1),
	}
	for _, m := range mutate {
		m(&r)
	}

	if r.Impressions > 0 {
		r.EngagementRate = float64(r.Clicks) / float64(r.Impressions)
	}
	r.Month = int(r.Date.Month())
	r.Quarter = (r.Month-1)/3 + 1
	r.Year = r.Date.Year()
	r.DurationCategory = durationCategory(r.DurationDays)
	r.EngagementCategory = engagementCategory(r.EngagementScore)
	return r
}

func durationCategory(days int) string {
	switch {
	case days <= 0:
		return domain.UnknownCategory
	case days <= 7:
		return domain.DurationShort
	case days <= 30:
		return domain.DurationMedium
	}
	return domain.DurationLong
}

func engagementCategory(score int) string {
	switch {
	case score <= 0:
		return domain.UnknownCategory
	case score <= 3:
		return domain.EngagementLow
	case score <= 6:
		return domain.EngagementMedium
	}
	return domain.EngagementHigh
}

// ScenarioRecords returns five campaigns: two on Google Ads with ROI 6.29
// and 5.61, three on YouTube with ROI 7.18, 5.55 and 6.5.
func ScenarioRecords() []domain.CampaignRecord {
	rows := []struct {
		channel string
		roi     float64
		date    time.Time
	}{
		{"Google Ads", 6.29, Date(2021, time.January, 1)},
		{"Google Ads", 5.61, Date(2021, time.February, 3)},
		{"YouTube", 7.18, Date(2021, time.January, 10)},
		{"YouTube", 5.55, Date(2021, time.March, 15)},
		{"YouTube", 6.5, Date(2021, time.April, 20)},
	}

	out := make([]domain.CampaignRecord, len(rows))
	for i, s := range rows {
		out[i] = NewRecord(strconv.Itoa(i+1), func(r *domain.CampaignRecord) {
			r.Channel = s.channel
			r.ROI = s.roi
			r.Date = s.date
		})
	}
	return out
}
