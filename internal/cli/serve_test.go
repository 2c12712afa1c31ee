package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/handlers"
	"github.com/tallyhq/tally/internal/health"
	"github.com/tallyhq/tally/internal/store"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	fs := afero.NewMemMapFs()
	st := store.New(store.NewFileStore(fs, "/data/stats.json", zap.NewNop()), time.Minute, zap.NewNop())
	t.Cleanup(st.Close)

	return newApp(&handlers.API{
		Store:   st,
		Events:  store.NewEventLog(store.DefaultEventLogCapacity),
		Checker: health.NewHTTPChecker(time.Second, zap.NewNop()),
	})
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp := doRequest(t, app, http.MethodGet, "/health", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, "tally", payload["service"])
}

func TestUpEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp := doRequest(t, app, http.MethodGet, "/up", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVersionEndpointAndHeader(t *testing.T) {
	originalVersion := Version
	Version = "1.2.3"
	t.Cleanup(func() { Version = originalVersion })

	app := newTestApp(t)

	resp := doRequest(t, app, http.MethodGet, "/api/version", nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "1.2.3", resp.Header.Get("X-Tally-Version"))

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "1.2.3", payload["version"])
}

func TestTrackerScriptServedWithHeaders(t *testing.T) {
	originalScript := TrackerScript
	TrackerScript = []byte("console.log('tally');")
	t.Cleanup(func() { TrackerScript = originalScript })

	app := newTestApp(t)

	for _, path := range []string{"/t.js", "/tally.js"} {
		resp := doRequest(t, app, http.MethodGet, path, nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/javascript")
		assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "console.log('tally');", string(body))
		_ = resp.Body.Close()
	}
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t)

	resp := doRequest(t, app, http.MethodOptions, "/api/track", nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestTrackRouteWiredEndToEnd(t *testing.T) {
	app := newTestApp(t)

	resp := doRequest(t, app, http.MethodPost, "/api/track",
		strings.NewReader(`{"gtmId":"GTM-9","eventType":"gtm.pageView"}`))
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	statsResp := doRequest(t, app, http.MethodGet, "/api/stats", nil)
	defer func() { _ = statsResp.Body.Close() }()

	var snap map[string]store.SiteStats
	require.NoError(t, json.NewDecoder(statsResp.Body).Decode(&snap))
	assert.Equal(t, 1, snap["GTM-9"].Visitors)
}
