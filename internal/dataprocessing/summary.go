package dataprocessing

import (
	"campaignpulse/pkg/contracts/domain"
)

// Summarize computes the basic statistics of a cleaned record set
func Summarize(records []domain.CampaignRecord) domain.DatasetSummary {
	s := domain.DatasetSummary{
		TotalCampaigns:   len(records),
		CampaignTypes:    make(map[string]int),
		Channels:         make(map[string]int),
		Companies:        make(map[string]int),
		CustomerSegments: make(map[string]int),
	}
	if len(records) == 0 {
		return s
	}

	var cost, conversion, roi float64
	s.DateRange = domain.DateRange{Start: records[0].Date, End: records[0].Date}
	for _, r := range records {
		s.CampaignTypes[r.CampaignType]++
		s.Channels[r.Channel]++
		s.Companies[r.Company]++
		s.CustomerSegments[r.CustomerSegment]++

		if r.Date.Before(s.DateRange.Start) {
			s.DateRange.Start = r.Date
		}
		if r.Date.After(s.DateRange.End) {
			s.DateRange.End = r.Date
		}

		cost += r.AcquisitionCost
		conversion += r.ConversionRate
		roi += r.ROI
		s.TotalClicks += r.Clicks
		s.TotalImpressions += r.Impressions
	}

	n := float64(len(records))
	s.AvgAcquisitionCost = cost / n
	s.AvgConversionRate = conversion / n
	s.AvgROI = roi / n
	return s
}
