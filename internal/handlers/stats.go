package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// HandleStats returns the full aggregate snapshot keyed by site
// identifier. No filtering or pagination; the dashboard takes the set.
func (a *API) HandleStats(c fiber.Ctx) error {
	return c.JSON(a.Store.Snapshot())
}

// HandleEvents returns the bounded raw event log, oldest first.
func (a *API) HandleEvents(c fiber.Ctx) error {
	return c.JSON(a.Events.Snapshot())
}

// HandleSiteHealth probes the stored URL of one tracked site.
func (a *API) HandleSiteHealth(c fiber.Ctx) error {
	siteID := c.Params("site_id")

	stats, ok := a.Store.Get(siteID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown site",
		})
	}

	result := a.Checker.Check(c.Context(), stats.SiteURL)
	return c.JSON(fiber.Map{
		"siteId":         stats.SiteID,
		"siteUrl":        stats.SiteURL,
		"status":         result.Status,
		"responseTimeMs": result.ResponseTimeMs,
	})
}
