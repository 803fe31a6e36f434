package state

import (
	"sync"
	"time"

	"ofertasbr/promofeeds/logger"
)

// State guards the shared config and stats documents behind one mutex.
// Every read and mutation from any execution context goes through it;
// mutations are persisted before the lock is released.
type State struct {
	mu    sync.RWMutex
	cfg   Config
	stats Stats
	store *Store
}

// NewState loads both documents from the store.
func NewState(store *Store) *State {
	return &State{
		cfg:   store.LoadConfig(),
		stats: store.LoadStats(),
		store: store,
	}
}

// Config returns a snapshot of the current configuration.
func (s *State) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Stats returns a snapshot of the current statistics.
func (s *State) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotStats(s.stats)
}

// UpdateConfig applies fn to the config under the lock and persists
// the result.
func (s *State) UpdateConfig(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
	return s.store.SaveConfig(s.cfg)
}

// UpdateStats applies fn to the stats under the lock and persists the
// result.
func (s *State) UpdateStats(fn func(*Stats)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.stats)
	return s.store.SaveStats(s.stats)
}

// QuotaRemaining returns how many deliveries are still allowed today.
func (s *State) QuotaRemaining() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	remaining := s.cfg.Distribution.DailyLimit - s.stats.Distribution.SentToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordSent counts one successful delivery.
func (s *State) RecordSent(now time.Time) {
	s.UpdateStats(func(st *Stats) {
		st.Distribution.SentToday++
		st.TotalProductsSent++
		st.Distribution.LastSent = &now
	})
}

// RecordFailed counts one delivery that failed on every channel.
func (s *State) RecordFailed() {
	s.UpdateStats(func(st *Stats) {
		st.Distribution.FailedToday++
	})
}

// RolloverIfNeeded archives and resets the daily counters when the
// calendar day has changed since the last reset. The pre-reset values
// are archived under the previous reset date. Calling it again on the
// same day is a no-op. Returns true when a rollover happened.
func (s *State) RolloverIfNeeded(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := now.Format("2006-01-02")
	if s.stats.LastResetDate == today {
		return false
	}

	// First ever rollover has nothing to archive.
	if s.stats.LastResetDate != "" {
		s.stats.DailyStats[s.stats.LastResetDate] = DayStats{
			Sent:          s.stats.Distribution.SentToday,
			Failed:        s.stats.Distribution.FailedToday,
			TotalProducts: s.stats.TotalProductsFound,
		}
	}

	s.stats.Distribution.SentToday = 0
	s.stats.Distribution.FailedToday = 0
	s.stats.LastResetDate = today

	if err := s.store.SaveStats(s.stats); err != nil {
		logger.ForComponent("state").Error().Err(err).Msg("Failed to persist stats after rollover")
	}
	return true
}

// snapshotStats deep-copies the map fields so callers cannot alias the
// guarded document.
func snapshotStats(stats Stats) Stats {
	out := stats
	out.DailyStats = make(map[string]DayStats, len(stats.DailyStats))
	for k, v := range stats.DailyStats {
		out.DailyStats[k] = v
	}
	out.SiteStats = make(map[string]int, len(stats.SiteStats))
	for k, v := range stats.SiteStats {
		out.SiteStats[k] = v
	}
	return out
}
