// Package state owns the operator-editable configuration and the run
// statistics. Both documents live as JSON files on disk and all access
// goes through the State actor, which is the single serialization
// point between the HTTP layer and the scheduler.
package state

import (
	"ofertasbr/promofeeds/internal/catalog"
)

// DistributionSettings controls the outbound messaging channel.
type DistributionSettings struct {
	Enabled             bool     `json:"enabled"`
	Recipients          []string `json:"recipients"`
	SendTimes           []string `json:"send_times"`
	ProductsPerInterval int      `json:"products_per_interval"`
	DailyLimit          int      `json:"daily_limit"`
	MessageTemplate     string   `json:"message_template"`
	CategoriesFilter    []string `json:"categories_filter"`
	MinPrice            float64  `json:"min_price"`
	MaxPrice            float64  `json:"max_price"`
	APIKey              string   `json:"api_key"`
	FallbackBotToken    string   `json:"fallback_bot_token"`
	UseFallback         bool     `json:"use_fallback"`
}

// UpdateSettings controls the pipeline cadence.
type UpdateSettings struct {
	IntervalHours     int  `json:"interval_hours"`
	StartImmediately  bool `json:"start_immediately"`
	ProductsPerUpdate int  `json:"products_per_update"`
}

// Config is the operator-facing configuration document. Loaded once at
// startup, mutated only through explicit operator actions, persisted
// after every mutation.
type Config struct {
	Sites          []catalog.SiteDefinition `json:"sites"`
	Distribution   DistributionSettings     `json:"distribution"`
	Updates        UpdateSettings           `json:"updates"`
	SetupCompleted bool                     `json:"setup_completed"`
}

// DefaultConfig returns the documented default structure, substituted
// whenever the config document is absent or unreadable.
func DefaultConfig() Config {
	return Config{
		Sites: catalog.PresetSites(),
		Distribution: DistributionSettings{
			Enabled:             false,
			Recipients:          []string{},
			SendTimes:           []string{"09:00", "13:00", "17:00", "21:00"},
			ProductsPerInterval: 5,
			DailyLimit:          20,
			MessageTemplate: "🔥 *OFERTA ESPECIAL* 🔥\n\n" +
				"*Produto:* {title}\n*Preço:* {price}\n*Categoria:* {category}\n*Site:* {site}\n\n🔗 {link}",
			CategoriesFilter: []string{},
			MinPrice:         0,
			MaxPrice:         10000,
			UseFallback:      true,
		},
		Updates: UpdateSettings{
			IntervalHours:     4,
			StartImmediately:  true,
			ProductsPerUpdate: 20,
		},
		SetupCompleted: false,
	}
}

// EnabledSites returns the sites the pipeline should visit this run.
func (c Config) EnabledSites() []catalog.SiteDefinition {
	var enabled []catalog.SiteDefinition
	for _, site := range c.Sites {
		if site.Enabled {
			enabled = append(enabled, site)
		}
	}
	return enabled
}

// FindSite returns the definition with the given name, if present.
func (c Config) FindSite(name string) (catalog.SiteDefinition, bool) {
	for _, site := range c.Sites {
		if site.Name == name {
			return site, true
		}
	}
	return catalog.SiteDefinition{}, false
}
