// Package health probes tracked sites so the dashboard can show
// reachability next to the counters. Failures map to degraded status
// values and never propagate into the aggregate path.
package health

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Site status values.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusError   = "error"
	StatusUnknown = "unknown"
)

// Result describes one probe of a site URL.
type Result struct {
	Status         string `json:"status"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
}

// Checker probes a site URL.
type Checker interface {
	Check(ctx context.Context, url string) Result
}

// HTTPChecker probes sites with a plain GET under a bounded timeout.
type HTTPChecker struct {
	client *http.Client
	log    *zap.Logger
}

// NewHTTPChecker creates a checker whose probes give up after timeout.
func NewHTTPChecker(timeout time.Duration, log *zap.Logger) *HTTPChecker {
	return &HTTPChecker{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Check probes url. Network errors and timeouts come back as "offline",
// HTTP error statuses as "error"; no probe is ever retried here.
func (h *HTTPChecker) Check(ctx context.Context, url string) Result {
	if url == "" {
		return Result{Status: StatusUnknown}
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Status: StatusError, ResponseTimeMs: elapsedMs(start)}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Debug("site probe failed", zap.String("url", url), zap.Error(err))
		return Result{Status: StatusOffline, ResponseTimeMs: elapsedMs(start)}
	}
	defer func() { _ = resp.Body.Close() }()

	result := Result{Status: StatusOnline, ResponseTimeMs: elapsedMs(start)}
	if resp.StatusCode >= 400 {
		result.Status = StatusError
	}
	return result
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
