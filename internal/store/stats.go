package store

import (
	"strconv"
	"time"

	"github.com/tallyhq/tally/internal/classify"
)

// SiteStats is the per-site running counters record. One exists per
// site identifier from the moment its first event is ingested.
type SiteStats struct {
	SiteID             string    `json:"siteId"`
	SiteName           string    `json:"siteName"`
	SiteURL            string    `json:"siteUrl"`
	Visitors           int       `json:"visitors"`
	PageViews          int       `json:"pageViews"`
	FormSubmissions    int       `json:"formSubmissions"`
	ButtonClicks       int       `json:"buttonClicks"`
	ValidationFailures int       `json:"validationFailures"`
	Leads              int       `json:"leads"`
	TestLeads          int       `json:"testLeads"`
	Conversions        int       `json:"conversions"`
	ConversionRate     string    `json:"conversionRate"`
	LastUpdated        time.Time `json:"lastUpdated"`

	// expiry is the pending test-lead reset timer for this site.
	// Owned by the Store; at most one outstanding timer per site.
	expiry *time.Timer
}

func newSiteStats(siteID, siteName, siteURL string, now time.Time) *SiteStats {
	return &SiteStats{
		SiteID:         siteID,
		SiteName:       siteName,
		SiteURL:        siteURL,
		ConversionRate: "0.0",
		LastUpdated:    now,
	}
}

// add applies one event's counter increments.
func (s *SiteStats) add(d classify.Delta) {
	s.Visitors += d.Visitors
	s.PageViews += d.PageViews
	s.FormSubmissions += d.FormSubmissions
	s.ButtonClicks += d.ButtonClicks
	s.ValidationFailures += d.ValidationFailures
	s.Leads += d.Leads
	s.TestLeads += d.TestLeads
	s.Conversions += d.Conversions
}

// recomputeRate rederives conversionRate from leads and visitors.
// The field is never mutated independently.
func (s *SiteStats) recomputeRate() {
	if s.Visitors == 0 {
		s.ConversionRate = "0.0"
		return
	}
	rate := float64(s.Leads) / float64(s.Visitors) * 100
	s.ConversionRate = strconv.FormatFloat(rate, 'f', 1, 64)
}
