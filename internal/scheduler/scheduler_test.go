package scheduler

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ofertasbr/promofeeds/internal/catalog"
	"ofertasbr/promofeeds/internal/dispatch"
	"ofertasbr/promofeeds/internal/scraper"
	"ofertasbr/promofeeds/internal/state"
)

const storePage = `
<html><body>
  <div class="product">
    <h2>Wireless Headphones em oferta</h2>
    <a href="/p/123?ref=homepage">Ver</a>
    <span class="price">R$ 199,90</span>
    <img src="/img/123.jpg">
  </div>
  <div class="product">
    <h2>Camiseta básica</h2>
    <a href="/p/456">Ver</a>
    <span class="price">R$ 39,90</span>
  </div>
</body></html>`

type stubDispatcher struct {
	mu       sync.Mutex
	received []catalog.RankedProduct
	report   dispatch.Report
}

func (d *stubDispatcher) Dispatch(ctx context.Context, products []catalog.RankedProduct) dispatch.Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.received = append([]catalog.RankedProduct(nil), products...)
	return d.report
}

func newTestState(t *testing.T, mutate func(*state.Config)) *state.State {
	t.Helper()

	store, err := state.NewStore(t.TempDir())
	require.NoError(t, err)

	st := state.NewState(store)
	require.NoError(t, st.UpdateConfig(func(cfg *state.Config) {
		cfg.SetupCompleted = true
		cfg.Sites = []catalog.SiteDefinition{{
			Name:          "lojinha",
			URL:           "https://lojinha.example.com",
			AffiliateType: catalog.AffiliateTag,
			AffiliateCode: "X20",
			Enabled:       true,
		}}
		if mutate != nil {
			mutate(cfg)
		}
	}))
	return st
}

func newTestScheduler(t *testing.T, st *state.State, fetch scraper.Fetcher, disp ProductDispatcher) (*Scheduler, string) {
	t.Helper()

	feedsDir := t.TempDir()
	s := New(st, scraper.NewWithFetcher(nil, fetch), disp, nil, feedsDir, 0)
	s.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return s, feedsDir
}

func pageFetcher(url string) (io.Reader, error) {
	return strings.NewReader(storePage), nil
}

func TestTriggerNowRunsFullPipeline(t *testing.T) {
	st := newTestState(t, nil)
	disp := &stubDispatcher{report: dispatch.Report{Outcome: dispatch.OutcomeDisabled}}
	s, feedsDir := newTestScheduler(t, st, pageFetcher, disp)

	result, err := s.TriggerNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.ProductsFound)
	assert.Equal(t, 2, result.ProductsRanked)
	assert.Equal(t, 1, result.FeedsWritten)
	assert.Equal(t, map[string]int{"lojinha": 2}, result.SiteCounts)

	data, err := os.ReadFile(filepath.Join(feedsDir, "lojinha_promocoes.xml"))
	require.NoError(t, err)
	rss := string(data)
	assert.Contains(t, rss, "Wireless Headphones em oferta")
	assert.Contains(t, rss, "tag=X20")
	// The source ref param must be stripped by the rewrite.
	assert.NotContains(t, rss, "ref=homepage")

	// Both products reached the dispatcher, ranked.
	require.Len(t, disp.received, 2)
	assert.GreaterOrEqual(t, disp.received[0].Score, disp.received[1].Score)
	assert.Equal(t, "Electronics", disp.received[0].Category)
}

func TestTriggerNowRecordsStats(t *testing.T) {
	st := newTestState(t, nil)
	s, _ := newTestScheduler(t, st, pageFetcher, &stubDispatcher{})

	_, err := s.TriggerNow(context.Background())
	require.NoError(t, err)

	stats := st.Stats()
	require.NotNil(t, stats.LastUpdate)
	require.NotNil(t, stats.NextUpdate)
	assert.Equal(t, s.now(), *stats.LastUpdate)
	// Default interval is 4 hours; next run derives from this run's start.
	assert.Equal(t, s.now().Add(4*time.Hour), *stats.NextUpdate)
	assert.Equal(t, 2, stats.TotalProductsFound)
	assert.Equal(t, 1, stats.TotalFeedsGenerated)
	assert.Equal(t, 2, stats.SiteStats["lojinha"])
}

func TestTriggerNowIsolatesSiteFailures(t *testing.T) {
	st := newTestState(t, func(cfg *state.Config) {
		cfg.Sites = append(cfg.Sites, catalog.SiteDefinition{
			Name:          "quebrada",
			URL:           "https://quebrada.example.com",
			AffiliateType: catalog.AffiliateTag,
			AffiliateCode: "X20",
			Enabled:       true,
		})
	})

	fetch := func(url string) (io.Reader, error) {
		if strings.Contains(url, "quebrada") {
			return nil, io.ErrUnexpectedEOF
		}
		return strings.NewReader(storePage), nil
	}
	s, _ := newTestScheduler(t, st, fetch, &stubDispatcher{})

	result, err := s.TriggerNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.ProductsFound)
	assert.Equal(t, 1, result.FeedsWritten)
	assert.NotContains(t, result.SiteCounts, "quebrada")
}

func TestTriggerNowRejectsConcurrentRun(t *testing.T) {
	st := newTestState(t, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	fetch := func(url string) (io.Reader, error) {
		close(started)
		<-release
		return strings.NewReader(storePage), nil
	}
	s, _ := newTestScheduler(t, st, fetch, &stubDispatcher{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.TriggerNow(context.Background())
	}()

	<-started
	assert.True(t, s.Running())
	_, err := s.TriggerNow(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	<-done
	assert.False(t, s.Running())
}

func TestDueGatedOnSetup(t *testing.T) {
	st := newTestState(t, func(cfg *state.Config) {
		cfg.SetupCompleted = false
	})
	s, _ := newTestScheduler(t, st, pageFetcher, &stubDispatcher{})

	assert.False(t, s.due(s.now()))
}

func TestDueFirstRunHonorsStartImmediately(t *testing.T) {
	st := newTestState(t, nil)
	s, _ := newTestScheduler(t, st, pageFetcher, &stubDispatcher{})

	assert.True(t, s.due(s.now()))

	require.NoError(t, st.UpdateConfig(func(cfg *state.Config) {
		cfg.Updates.StartImmediately = false
	}))
	assert.False(t, s.due(s.now()))
}

func TestDueSendTimeFiresBeforeFirstRun(t *testing.T) {
	st := newTestState(t, func(cfg *state.Config) {
		cfg.Updates.StartImmediately = false
	})
	s, _ := newTestScheduler(t, st, pageFetcher, &stubDispatcher{})

	// No run has ever happened; a configured send time still triggers.
	at := time.Date(2025, 3, 10, 13, 0, 10, 0, time.UTC)
	assert.True(t, s.due(at))

	assert.False(t, s.due(time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)))
}

func TestNewDefaultsPollInterval(t *testing.T) {
	st := newTestState(t, nil)
	disp := &stubDispatcher{}

	s := New(st, scraper.NewWithFetcher(nil, pageFetcher), disp, nil, t.TempDir(), 30*time.Second)
	assert.Equal(t, 30*time.Second, s.pollInterval)

	s = New(st, scraper.NewWithFetcher(nil, pageFetcher), disp, nil, t.TempDir(), 0)
	assert.Equal(t, time.Minute, s.pollInterval)
}

func TestDueIntervalElapsed(t *testing.T) {
	st := newTestState(t, nil)
	s, _ := newTestScheduler(t, st, pageFetcher, &stubDispatcher{})

	lastRun := s.now().Add(-3 * time.Hour)
	require.NoError(t, st.UpdateStats(func(stats *state.Stats) {
		stats.LastUpdate = &lastRun
	}))
	assert.False(t, s.due(s.now()))

	lastRun = s.now().Add(-4 * time.Hour)
	require.NoError(t, st.UpdateStats(func(stats *state.Stats) {
		stats.LastUpdate = &lastRun
	}))
	assert.True(t, s.due(s.now()))
}

func TestDueSendTimeFiresOncePerMinute(t *testing.T) {
	st := newTestState(t, nil)
	s, _ := newTestScheduler(t, st, pageFetcher, &stubDispatcher{})

	lastRun := s.now().Add(-time.Hour)
	require.NoError(t, st.UpdateStats(func(stats *state.Stats) {
		stats.LastUpdate = &lastRun
	}))

	// 13:00 is one of the default send times.
	at := time.Date(2025, 3, 10, 13, 0, 10, 0, time.UTC)
	assert.True(t, s.due(at))
	assert.False(t, s.due(at.Add(20*time.Second)))
	assert.False(t, s.due(time.Date(2025, 3, 10, 13, 1, 0, 0, time.UTC)))
}

func TestRunArchivesPreviousDayBeforeCounting(t *testing.T) {
	st := newTestState(t, nil)
	require.NoError(t, st.UpdateStats(func(stats *state.Stats) {
		stats.LastResetDate = "2025-03-09"
		stats.Distribution.SentToday = 7
		stats.Distribution.FailedToday = 1
	}))
	s, _ := newTestScheduler(t, st, pageFetcher, &stubDispatcher{})

	_, err := s.TriggerNow(context.Background())
	require.NoError(t, err)

	stats := st.Stats()
	assert.Equal(t, "2025-03-10", stats.LastResetDate)
	assert.Equal(t, 0, stats.Distribution.SentToday)
	archived, ok := stats.DailyStats["2025-03-09"]
	require.True(t, ok)
	assert.Equal(t, 7, archived.Sent)
	assert.Equal(t, 1, archived.Failed)
}
