package state

import "time"

// DayStats archives one calendar day's distribution counters.
type DayStats struct {
	Sent          int `json:"sent"`
	Failed        int `json:"failed"`
	TotalProducts int `json:"total_products"`
}

// DistributionStats tracks the current day's outbound deliveries.
type DistributionStats struct {
	SentToday   int        `json:"sent_today"`
	FailedToday int        `json:"failed_today"`
	LastSent    *time.Time `json:"last_sent,omitempty"`
}

// Stats is the statistics document. Mutated only by the scheduler and
// the dispatcher, always through the State actor.
type Stats struct {
	TotalProductsFound  int                 `json:"total_products_found"`
	TotalProductsSent   int                 `json:"total_products_sent"`
	TotalFeedsGenerated int                 `json:"total_feeds_generated"`
	LastUpdate          *time.Time          `json:"last_update,omitempty"`
	NextUpdate          *time.Time          `json:"next_update,omitempty"`
	DailyStats          map[string]DayStats `json:"daily_stats"`
	SiteStats           map[string]int      `json:"site_stats"`
	Distribution        DistributionStats   `json:"distribution"`
	LastResetDate       string              `json:"last_reset_date,omitempty"`
}

// DefaultStats returns the documented default structure.
func DefaultStats() Stats {
	return Stats{
		DailyStats: make(map[string]DayStats),
		SiteStats:  make(map[string]int),
	}
}
