package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Input column names. The input table must carry all of them; order is free.
const (
	ColCampaignID      = "Campaign_ID"
	ColCompany         = "Company"
	ColCampaignType    = "Campaign_Type"
	ColTargetAudience  = "Target_Audience"
	ColDuration        = "Duration"
	ColChannel         = "Channel_Used"
	ColConversionRate  = "Conversion_Rate"
	ColAcquisitionCost = "Acquisition_Cost"
	ColROI             = "ROI"
	ColLocation        = "Location"
	ColLanguage        = "Language"
	ColClicks          = "Clicks"
	ColImpressions     = "Impressions"
	ColEngagementScore = "Engagement_Score"
	ColCustomerSegment = "Customer_Segment"
	ColDate            = "Date"
)

// Derived column names added by the cleaner.
const (
	ColDurationDays       = "Duration_Days"
	ColDurationCategory   = "Duration_Category"
	ColEngagementRate     = "Engagement_Rate"
	ColEngagementCategory = "Engagement_Category"
	ColMonth              = "Month"
	ColQuarter            = "Quarter"
	ColYear               = "Year"
)

// RequiredColumns lists the sixteen input columns in canonical order.
var RequiredColumns = []string{
	ColCampaignID, ColCompany, ColCampaignType, ColTargetAudience, ColDuration,
	ColChannel, ColConversionRate, ColAcquisitionCost, ColROI, ColLocation,
	ColLanguage, ColClicks, ColImpressions, ColEngagementScore,
	ColCustomerSegment, ColDate,
}

// DerivedFeatures lists the columns the cleaner adds, in the order it adds them.
var DerivedFeatures = []string{
	ColDurationDays, ColDurationCategory, ColEngagementRate,
	ColMonth, ColQuarter, ColYear, ColEngagementCategory,
}

// UnknownCategory replaces missing categorical values.
const UnknownCategory = "Unknown"

// Duration buckets
const (
	DurationShort  = "Short"
	DurationMedium = "Medium"
	DurationLong   = "Long"
)

// Engagement buckets
const (
	EngagementLow    = "Low"
	EngagementMedium = "Medium"
	EngagementHigh   = "High"
)

// RawRecord is one input row after type coercion. Nil numeric fields and
// empty categorical fields are nulls that the cleaner resolves.
type RawRecord struct {
	Row int `json:"row"`

	ID              string     `json:"campaign_id"`
	Company         string     `json:"company"`
	CampaignType    string     `json:"campaign_type"`
	TargetAudience  string     `json:"target_audience"`
	Duration        string     `json:"duration"`
	Channel         string     `json:"channel"`
	ConversionRate  *float64   `json:"conversion_rate"`
	AcquisitionCost *float64   `json:"acquisition_cost"`
	ROI             *float64   `json:"roi"`
	Location        string     `json:"location"`
	Language        string     `json:"language"`
	Clicks          *float64   `json:"clicks"`
	Impressions     *float64   `json:"impressions"`
	EngagementScore *float64   `json:"engagement_score"`
	CustomerSegment string     `json:"customer_segment"`
	Date            *time.Time `json:"date"`
}

// CampaignRecord is a cleaned campaign with every derived feature populated.
// Records are never mutated once the cleaner returns them.
type CampaignRecord struct {
	ID              string    `json:"campaign_id" validate:"required"`
	Company         string    `json:"company" validate:"required"`
	CampaignType    string    `json:"campaign_type" validate:"required"`
	TargetAudience  string    `json:"target_audience" validate:"required"`
	DurationDays    int       `json:"duration_days" validate:"gte=0"`
	Channel         string    `json:"channel" validate:"required"`
	ConversionRate  float64   `json:"conversion_rate" validate:"gte=0,lte=1"`
	AcquisitionCost float64   `json:"acquisition_cost" validate:"gte=0"`
	ROI             float64   `json:"roi"`
	Location        string    `json:"location" validate:"required"`
	Language        string    `json:"language" validate:"required"`
	Clicks          int64     `json:"clicks" validate:"gte=0"`
	Impressions     int64     `json:"impressions" validate:"gte=0"`
	EngagementScore int       `json:"engagement_score" validate:"gte=0,lte=10"`
	CustomerSegment string    `json:"customer_segment" validate:"required"`
	Date            time.Time `json:"date" validate:"required"`

	EngagementRate     float64 `json:"engagement_rate" validate:"gte=0"`
	DurationCategory   string  `json:"duration_category"`
	EngagementCategory string  `json:"engagement_category"`
	Month              int     `json:"month" validate:"gte=1,lte=12"`
	Quarter            int     `json:"quarter" validate:"gte=1,lte=4"`
	Year               int     `json:"year"`
}

// MonthPeriod returns the record's calendar month as "2006-01".
func (r CampaignRecord) MonthPeriod() string {
	return r.Date.Format("2006-01")
}

// QuarterPeriod returns the record's calendar quarter as "2006-Q1".
func (r CampaignRecord) QuarterPeriod() string {
	return fmt.Sprintf("%d-Q%d", r.Year, r.Quarter)
}

// ToRaw converts a cleaned record back into cleaner input.
func (r CampaignRecord) ToRaw(row int) RawRecord {
	conv, cost, roi := r.ConversionRate, r.AcquisitionCost, r.ROI
	clicks, impressions, score := float64(r.Clicks), float64(r.Impressions), float64(r.EngagementScore)
	date := r.Date
	duration := ""
	if r.DurationDays > 0 {
		duration = strconv.Itoa(r.DurationDays) + " days"
	}
	return RawRecord{
		Row:             row,
		ID:              r.ID,
		Company:         r.Company,
		CampaignType:    r.CampaignType,
		TargetAudience:  r.TargetAudience,
		Duration:        duration,
		Channel:         r.Channel,
		ConversionRate:  &conv,
		AcquisitionCost: &cost,
		ROI:             &roi,
		Location:        r.Location,
		Language:        r.Language,
		Clicks:          &clicks,
		Impressions:     &impressions,
		EngagementScore: &score,
		CustomerSegment: r.CustomerSegment,
		Date:            &date,
	}
}
