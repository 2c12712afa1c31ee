package handlers

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/logging"
)

// HandleAdminState reports the current store size without touching it.
func (a *API) HandleAdminState(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"sites":  a.Store.Len(),
		"events": a.Events.Len(),
	})
}

// HandleAdminReset clears the aggregate store and the raw event log.
// The confirmation flag is mandatory; without it nothing is mutated.
func (a *API) HandleAdminReset(c fiber.Ctx) error {
	var req ResetRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON",
		})
	}

	if !req.Confirm {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Confirmation required",
		})
	}

	sites := a.Store.Len()
	events := a.Events.Len()

	a.Store.Clear()
	a.Events.Clear()

	logging.L().Warn("administrative reset performed",
		zap.Int("sites_cleared", sites),
		zap.Int("events_cleared", events))

	return c.JSON(fiber.Map{
		"status":         "success",
		"sites_cleared":  sites,
		"events_cleared": events,
	})
}
