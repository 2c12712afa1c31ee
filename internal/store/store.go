package store

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/classify"
)

var nowFunc = time.Now

// Store holds the per-site aggregates, mirrors every mutation to its
// Persister, and owns the test-lead expiry timers. All counter
// read-modify-write sequences run under one mutex so concurrent ingest
// requests and firing timers serialize their updates.
type Store struct {
	mu        sync.Mutex
	sites     map[string]*SiteStats
	persister Persister
	ttl       time.Duration
	log       *zap.Logger
}

// New creates a store backed by p, loading any previously persisted
// state. ttl is the test-lead expiry window.
func New(p Persister, ttl time.Duration, log *zap.Logger) *Store {
	sites, err := p.Load()
	if err != nil || sites == nil {
		if err != nil {
			log.Warn("failed to load persisted stats, starting empty", zap.Error(err))
		}
		sites = make(map[string]*SiteStats)
	}

	s := &Store{
		sites:     sites,
		persister: p,
		ttl:       ttl,
		log:       log,
	}

	// Test leads persisted by a previous run still have to age out.
	s.mu.Lock()
	for _, st := range s.sites {
		if st.TestLeads > 0 {
			s.armExpiryLocked(st)
		}
	}
	s.mu.Unlock()

	return s
}

// GetOrCreate returns the aggregate for siteID, creating a zeroed one
// if the site has never been seen. New sites are persisted immediately
// so they survive a crash before further events arrive.
func (s *Store) GetOrCreate(siteID, siteName, siteURL string) SiteStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, created := s.getOrCreateLocked(siteID, siteName, siteURL)
	if created {
		s.persistLocked()
	}
	return *st
}

// Apply mutates siteID's aggregate with the classifier's delta,
// rederives conversionRate, arms the test-lead expiry timer when the
// delta carries a test lead, and persists the store. The updated
// aggregate is returned by value.
func (s *Store) Apply(siteID, siteName, siteURL string, d classify.Delta) SiteStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, _ := s.getOrCreateLocked(siteID, siteName, siteURL)

	// Display metadata is last-write-wins.
	if siteName != "" {
		st.SiteName = siteName
	}
	if siteURL != "" {
		st.SiteURL = siteURL
	}

	st.add(d)
	st.recomputeRate()
	st.LastUpdated = nowFunc()

	if d.TestLeads > 0 {
		s.armExpiryLocked(st)
	}

	s.persistLocked()
	return *st
}

// Get returns a copy of siteID's aggregate.
func (s *Store) Get(siteID string) (SiteStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sites[siteID]
	if !ok {
		return SiteStats{}, false
	}
	return *st, true
}

// Snapshot returns a copy of the full store keyed by site identifier.
func (s *Store) Snapshot() map[string]SiteStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]SiteStats, len(s.sites))
	for id, st := range s.sites {
		out[id] = *st
	}
	return out
}

// Len returns the number of tracked sites.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sites)
}

// Clear atomically empties the store, cancels all pending expiry
// timers, and persists the empty state. Used only by the explicit
// administrative reset.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.sites {
		if st.expiry != nil {
			st.expiry.Stop()
			st.expiry = nil
		}
	}
	s.sites = make(map[string]*SiteStats)
	s.persistLocked()
}

// Close stops all pending timers and writes a final snapshot. Called on
// graceful shutdown.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.sites {
		if st.expiry != nil {
			st.expiry.Stop()
			st.expiry = nil
		}
	}
	s.persistLocked()
}

func (s *Store) getOrCreateLocked(siteID, siteName, siteURL string) (*SiteStats, bool) {
	if st, ok := s.sites[siteID]; ok {
		return st, false
	}
	st := newSiteStats(siteID, siteName, siteURL, nowFunc())
	s.sites[siteID] = st
	s.log.Info("tracking new site",
		zap.String("site_id", siteID),
		zap.String("site_name", siteName))
	return st, true
}

// armExpiryLocked arms (or re-arms) the sliding-window expiry timer for
// st. A later test lead supersedes any pending timer, so continuous
// test traffic keeps testLeads nonzero while a quiet period longer than
// the window clears it.
func (s *Store) armExpiryLocked(st *SiteStats) {
	if st.expiry != nil {
		st.expiry.Stop()
	}
	siteID := st.SiteID
	st.expiry = time.AfterFunc(s.ttl, func() {
		s.expireTestLeads(siteID)
	})
}

func (s *Store) expireTestLeads(siteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sites[siteID]
	if !ok {
		return
	}
	st.expiry = nil
	if st.TestLeads == 0 {
		return
	}

	s.log.Info("expiring test leads",
		zap.String("site_id", siteID),
		zap.Int("test_leads", st.TestLeads))

	st.TestLeads = 0
	st.LastUpdated = nowFunc()
	s.persistLocked()
}

// persistLocked mirrors the store to disk. Persistence failures are
// logged but never propagated: losing one write must not make the
// service unavailable to producers.
func (s *Store) persistLocked() {
	if err := s.persister.Save(s.sites); err != nil {
		s.log.Error("failed to persist aggregate store", zap.Error(err))
	}
}
