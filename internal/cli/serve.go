package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/handlers"
	"github.com/tallyhq/tally/internal/health"
	"github.com/tallyhq/tally/internal/logging"
	"github.com/tallyhq/tally/internal/realtime"
	"github.com/tallyhq/tally/internal/store"
)

var (
	servePort    string
	serveDataDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Tally analytics server",
	Long: `Start the Tally analytics server.

The serve command starts the web server that ingests tracking events and
serves the dashboard API.

Environment variables:
  PORT           Server port (default: 3000)
  DATA_DIR       Directory for the persisted stats file (default: ./data)
  TEST_LEAD_TTL  Test-lead expiry window, e.g. "60s" (default: 60s)

Example:
  DATA_DIR=/var/lib/tally tally serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(servePort, serveDataDir)
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "server port (overrides config)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "data directory (overrides config)")
}

// runServe wires the store, scheduler, hub and HTTP surface together
// and blocks until the process is signalled to stop.
func runServe(portOverride, dataDirOverride string) error {
	cfg, err := config.LoadWithOverrides(portOverride, dataDirOverride)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.L()

	persister := store.NewFileStore(afero.NewOsFs(), cfg.StatsFile(), log)
	aggregates := store.New(persister, cfg.TestLeadTTL, log)
	events := store.NewEventLog(store.DefaultEventLogCapacity)
	hub := realtime.NewHub()
	checker := health.NewHTTPChecker(cfg.HealthCheckTimeout, log)

	api := &handlers.API{
		Store:   aggregates,
		Events:  events,
		Hub:     hub,
		Checker: checker,
	}

	app := newApp(api)

	// Graceful shutdown: stop accepting, cancel timers, final save.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info("tally starting",
			zap.String("port", cfg.Port),
			zap.String("stats_file", cfg.StatsFile()),
			zap.Duration("test_lead_ttl", cfg.TestLeadTTL))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case sig := <-shutdown:
		log.Info("shutting down", zap.String("signal", sig.String()))
		if err := app.Shutdown(); err != nil {
			log.Warn("server shutdown error", zap.Error(err))
		}
		hub.Close()
		aggregates.Close()
		return nil
	case err := <-errCh:
		hub.Close()
		aggregates.Close()
		return err
	}
}

// newApp builds the fiber app and routes around an API instance.
// Separated from runServe so tests can exercise the full routing table.
func newApp(api *handlers.API) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Tally - lead tracking without bloat",
	})

	// Version header on every response
	app.Use(func(c fiber.Ctx) error {
		c.Set("X-Tally-Version", Version)
		return c.Next()
	})

	// Permissive CORS: trackers post from arbitrary customer origins.
	app.Use(func(c fiber.Ctx) error {
		c.Set("Access-Control-Allow-Origin", "*")
		c.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	})

	// Request logging
	app.Use(func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logging.L().Debug("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)))
		return err
	})

	// Service endpoints
	app.Get("/health", handleHealth)
	app.Get("/up", handleUp)
	app.Get("/api/version", handleVersion)

	// Tracker script
	app.Get("/t.js", handleTrackerScript(TrackerScript))
	app.Get("/tally.js", handleTrackerScript(TrackerScript))

	// Ingestion
	app.Post("/api/track", api.HandleTrack)

	// Dashboard read API
	app.Get("/api/stats", api.HandleStats)
	app.Get("/api/events", api.HandleEvents)
	app.Get("/api/sites/:site_id/health", api.HandleSiteHealth)

	// Administration
	app.Get("/api/admin/state", api.HandleAdminState)
	app.Post("/api/admin/reset", api.HandleAdminReset)

	// Live event stream
	if api.Hub != nil {
		app.Get("/ws/live", api.Hub.Handler())
	}

	return app
}

func handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "tally",
	})
}

func handleUp(c fiber.Ctx) error {
	// Container health check endpoint. The store is in-process, so a
	// responding server is a healthy server.
	return c.SendStatus(fiber.StatusOK)
}

func handleVersion(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": Version,
	})
}

func handleTrackerScript(trackerScript []byte) fiber.Handler {
	return func(c fiber.Ctx) error {
		c.Set("Content-Type", "application/javascript; charset=utf-8")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("Cache-Control", "public, max-age=3600, immutable")
		c.Set("Access-Control-Allow-Origin", "*")
		c.Set("Timing-Allow-Origin", "*")
		return c.Send(trackerScript)
	}
}
