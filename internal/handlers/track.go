package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/classify"
	"github.com/tallyhq/tally/internal/logging"
)

// HandleTrack is the POST /api/track ingestion endpoint.
//
// Well-formed requests are always acknowledged with 200, even when
// persistence fails underneath: analytics producers fire and forget,
// and losing one write must not make the service look unavailable.
func (a *API) HandleTrack(c fiber.Ctx) error {
	var decoded any
	if err := json.Unmarshal(c.Body(), &decoded); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON",
		})
	}

	// Everything received lands in the raw log, counted or not.
	raw, _ := decoded.(map[string]any)
	if raw == nil {
		raw = map[string]any{}
	}
	entry := a.Events.Append(raw)

	payload := payloadFrom(raw)

	siteID := strings.TrimSpace(payload.GTMID)
	if siteID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing site ID",
		})
	}

	delta := classify.Classify(payload.EventType, payload.Data)
	stats := a.Store.Apply(siteID, payload.SiteName, payload.SiteURL, delta)

	if !classify.Known(payload.EventType) && payload.EventType != "" {
		logging.L().Debug("ignoring unknown event type",
			zap.String("event_type", payload.EventType),
			zap.String("site_id", siteID))
	}

	if a.Hub != nil {
		a.Hub.Publish(fiber.Map{
			"event": entry,
			"stats": stats,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Data received",
	})
}

// payloadFrom pulls the tracking fields out of the decoded body.
// Fields carrying the wrong JSON type are treated as absent rather
// than failing the whole payload; trackers in the wild send junk.
func payloadFrom(raw map[string]any) TrackPayload {
	p := TrackPayload{
		GTMID:     stringField(raw, "gtmId"),
		SiteName:  stringField(raw, "siteName"),
		SiteURL:   stringField(raw, "siteUrl"),
		EventType: stringField(raw, "eventType"),
	}
	if data, ok := raw["data"].(map[string]any); ok {
		p.Data = data
	}
	return p
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}
