// Package handlers contains the HTTP surface: event ingestion from the
// browser trackers and the read endpoints the dashboard polls.
package handlers

import (
	"github.com/tallyhq/tally/internal/health"
	"github.com/tallyhq/tally/internal/realtime"
	"github.com/tallyhq/tally/internal/store"
)

// API bundles the collaborators the handlers operate on. Tests build it
// against an in-memory persister and a stub checker.
type API struct {
	Store   *store.Store
	Events  *store.EventLog
	Hub     *realtime.Hub
	Checker health.Checker
}

// TrackPayload is the JSON body the browser trackers POST. Unknown
// fields are ignored; missing fields default to empty.
type TrackPayload struct {
	GTMID     string         `json:"gtmId"`
	SiteName  string         `json:"siteName"`
	SiteURL   string         `json:"siteUrl"`
	EventType string         `json:"eventType"`
	Data      map[string]any `json:"data"`
}

// ResetRequest gates the administrative reset.
type ResetRequest struct {
	Confirm bool `json:"confirm"`
}
