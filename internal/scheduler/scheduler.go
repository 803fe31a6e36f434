// Package scheduler runs the scrape-rank-publish pipeline on the
// configured cadence. A run can be triggered by the elapsed interval,
// by a configured send time or explicitly by the operator; however it
// starts, at most one run is in flight at a time.
package scheduler

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"ofertasbr/promofeeds/internal/affiliate"
	"ofertasbr/promofeeds/internal/catalog"
	"ofertasbr/promofeeds/internal/dispatch"
	"ofertasbr/promofeeds/internal/feed"
	"ofertasbr/promofeeds/internal/ranking"
	"ofertasbr/promofeeds/internal/scraper"
	"ofertasbr/promofeeds/internal/state"
	"ofertasbr/promofeeds/logger"
	"ofertasbr/promofeeds/pkg/errors"
	"ofertasbr/promofeeds/services/publisher"
)

// ErrBusy is returned when a trigger arrives while a run is in flight.
var ErrBusy = errors.NewConfiguration("a pipeline run is already in progress", nil)

// ProductDispatcher is the slice of the dispatcher the scheduler needs.
type ProductDispatcher interface {
	Dispatch(ctx context.Context, products []catalog.RankedProduct) dispatch.Report
}

// RunResult summarizes one completed pipeline run.
type RunResult struct {
	ProductsFound  int             `json:"products_found"`
	ProductsRanked int             `json:"products_ranked"`
	FeedsWritten   int             `json:"feeds_written"`
	SiteCounts     map[string]int  `json:"site_counts"`
	Dispatch       dispatch.Report `json:"dispatch"`
}

// Scheduler owns the pipeline cadence.
type Scheduler struct {
	state      *state.State
	scraper    *scraper.Scraper
	dispatcher ProductDispatcher
	pub        publisher.Publisher
	feedsDir   string

	running      atomic.Bool
	pollInterval time.Duration
	now          func() time.Time

	// lastSendMinute dedupes send-time triggers within one calendar minute
	lastSendMinute string

	log *logger.Logger
}

// New builds a scheduler polling for due triggers every pollInterval
// (one minute when zero). pub may be nil when stream publishing is
// disabled.
func New(st *state.State, sc *scraper.Scraper, dispatcher ProductDispatcher, pub publisher.Publisher, feedsDir string, pollInterval time.Duration) *Scheduler {
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &Scheduler{
		state:        st,
		scraper:      sc,
		dispatcher:   dispatcher,
		pub:          pub,
		feedsDir:     feedsDir,
		pollInterval: pollInterval,
		now:          time.Now,
		log:          logger.ForComponent("scheduler"),
	}
}

// Running reports whether a pipeline run is currently in flight.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Start blocks until ctx is cancelled, polling once per minute and
// running the pipeline whenever a trigger fires.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info().Dur("poll_interval", s.pollInterval).Msg("Scheduler started")

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Scheduler stopped")
			return
		case <-ticker.C:
			if s.due(s.now()) {
				if _, err := s.TriggerNow(ctx); err != nil {
					s.log.Warn().Err(err).Msg("Scheduled run skipped")
				}
			}
		}
	}
}

// due decides whether a run should start at now. Nothing runs before
// the operator completes setup.
func (s *Scheduler) due(now time.Time) bool {
	cfg := s.state.Config()
	if !cfg.SetupCompleted {
		return false
	}

	stats := s.state.Stats()
	if stats.LastUpdate == nil {
		if cfg.Updates.StartImmediately {
			return true
		}
	} else {
		interval := time.Duration(cfg.Updates.IntervalHours) * time.Hour
		if interval > 0 && !now.Before(stats.LastUpdate.Add(interval)) {
			return true
		}
	}

	minute := now.Format("2006-01-02 15:04")
	if minute == s.lastSendMinute {
		return false
	}
	for _, sendTime := range cfg.Distribution.SendTimes {
		if sendTime == now.Format("15:04") {
			s.lastSendMinute = minute
			return true
		}
	}
	return false
}

// TriggerNow runs the pipeline immediately. It returns ErrBusy without
// side effects when a run is already in flight.
func (s *Scheduler) TriggerNow(ctx context.Context) (RunResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return RunResult{}, ErrBusy
	}
	defer s.running.Store(false)

	return s.run(ctx), nil
}

// run executes one full pipeline pass. Per-site failures are isolated:
// one site going dark never takes the run down.
func (s *Scheduler) run(ctx context.Context) RunResult {
	started := s.now()
	s.state.RolloverIfNeeded(started)

	cfg := s.state.Config()
	sites := cfg.EnabledSites()
	s.log.Info().Int("sites", len(sites)).Msg("Pipeline run started")

	filters := ranking.Filters{
		MinPrice:   cfg.Distribution.MinPrice,
		MaxPrice:   cfg.Distribution.MaxPrice,
		Categories: cfg.Distribution.CategoriesFilter,
	}

	var (
		mu         sync.Mutex
		ranked     []catalog.RankedProduct
		found      int
		siteCounts = make(map[string]int)
		wg         sync.WaitGroup
	)

	for _, site := range sites {
		wg.Add(1)
		go func(site catalog.SiteDefinition) {
			defer wg.Done()

			raw, err := s.scraper.Scrape(site)
			if err != nil {
				s.log.Warn().Err(err).Str("site", site.Name).Msg("Scrape failed")
				return
			}

			var kept []catalog.RankedProduct
			for _, p := range raw {
				rp, ok := ranking.Classify(p, site, filters)
				if !ok {
					continue
				}
				rp.AffiliateLink = affiliate.Rewrite(p.Link, site)
				kept = append(kept, rp)
			}

			mu.Lock()
			found += len(raw)
			siteCounts[site.Name] += len(raw)
			ranked = append(ranked, kept...)
			mu.Unlock()
		}(site)
	}
	wg.Wait()

	ranked = ranking.Rank(ranked, cfg.Updates.ProductsPerUpdate)

	result := RunResult{
		ProductsFound:  found,
		ProductsRanked: len(ranked),
		SiteCounts:     siteCounts,
	}

	for _, doc := range feed.Assemble(ranked, cfg.Sites, started) {
		path, err := feed.Write(s.feedsDir, doc)
		if err != nil {
			s.log.Error().Err(err).Str("site", doc.Site).Msg("Feed write failed")
			continue
		}
		s.log.Info().Str("site", doc.Site).Str("path", path).Int("entries", len(doc.Entries)).Msg("Feed written")
		result.FeedsWritten++
	}

	s.publish(ranked)

	result.Dispatch = s.dispatcher.Dispatch(ctx, ranked)

	nextRun := s.recordRun(started, result)
	s.log.Info().
		Int("found", result.ProductsFound).
		Int("ranked", result.ProductsRanked).
		Int("feeds", result.FeedsWritten).
		Str("dispatch", string(result.Dispatch.Outcome)).
		Time("next_run", nextRun).
		Msg("Pipeline run finished")

	return result
}

// publish pushes the ranked products to the stream, when one is wired.
func (s *Scheduler) publish(products []catalog.RankedProduct) {
	if s.pub == nil {
		return
	}

	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			s.log.Error().Err(err).Str("site", p.Site).Msg("Failed to encode product for stream")
			continue
		}
		if err := s.pub.Publish(p.Site, data); err != nil {
			s.log.Error().Err(err).Str("site", p.Site).Msg("Stream publish failed")
		}
	}

	if err := s.pub.TrimStreams(); err != nil {
		s.log.Error().Err(err).Msg("Stream trim failed")
	}
}

// recordRun persists the run's statistics. The next run time derives
// from this run's start plus the configured interval, nothing else.
func (s *Scheduler) recordRun(started time.Time, result RunResult) time.Time {
	cfg := s.state.Config()
	nextRun := started.Add(time.Duration(cfg.Updates.IntervalHours) * time.Hour)

	s.state.UpdateStats(func(stats *state.Stats) {
		stats.LastUpdate = &started
		stats.NextUpdate = &nextRun
		stats.TotalProductsFound += result.ProductsFound
		stats.TotalFeedsGenerated += result.FeedsWritten
		for site, count := range result.SiteCounts {
			stats.SiteStats[site] += count
		}
	})
	return nextRun
}
