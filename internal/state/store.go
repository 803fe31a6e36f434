package state

import (
	"encoding/json"
	"os"
	"path/filepath"

	"ofertasbr/promofeeds/logger"
)

const (
	configFile = "config.json"
	statsFile  = "stats.json"
)

// Store persists the config and stats documents as JSON files under a
// data directory. Loading never fails: an absent or unreadable file is
// replaced by the documented default structure.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// LoadConfig reads the config document, substituting defaults on error.
func (s *Store) LoadConfig() Config {
	cfg := DefaultConfig()
	if err := s.load(configFile, &cfg); err != nil {
		logger.ForComponent("store").Warn().Err(err).Msg("Using default config")
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig writes the config document.
func (s *Store) SaveConfig(cfg Config) error {
	return s.save(configFile, cfg)
}

// LoadStats reads the stats document, substituting defaults on error.
func (s *Store) LoadStats() Stats {
	stats := DefaultStats()
	if err := s.load(statsFile, &stats); err != nil {
		logger.ForComponent("store").Warn().Err(err).Msg("Using default stats")
		return DefaultStats()
	}
	if stats.DailyStats == nil {
		stats.DailyStats = make(map[string]DayStats)
	}
	if stats.SiteStats == nil {
		stats.SiteStats = make(map[string]int)
	}
	return stats
}

// SaveStats writes the stats document.
func (s *Store) SaveStats(stats Stats) error {
	return s.save(statsFile, stats)
}

func (s *Store) load(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) save(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}
