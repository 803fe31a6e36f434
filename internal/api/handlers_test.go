package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ofertasbr/promofeeds/internal/catalog"
	"ofertasbr/promofeeds/internal/dispatch"
	"ofertasbr/promofeeds/internal/scheduler"
	"ofertasbr/promofeeds/internal/scraper"
	"ofertasbr/promofeeds/internal/state"
)

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(ctx context.Context, products []catalog.RankedProduct) dispatch.Report {
	return dispatch.Report{Outcome: dispatch.OutcomeDisabled}
}

type testEnv struct {
	engine   *gin.Engine
	state    *state.State
	feedsDir string
}

func newTestEnv(t *testing.T, fetch scraper.Fetcher) testEnv {
	t.Helper()

	store, err := state.NewStore(t.TempDir())
	require.NoError(t, err)
	st := state.NewState(store)
	require.NoError(t, st.UpdateConfig(func(cfg *state.Config) {
		cfg.SetupCompleted = true
	}))

	if fetch == nil {
		fetch = func(url string) (io.Reader, error) {
			return strings.NewReader("<html></html>"), nil
		}
	}

	feedsDir := t.TempDir()
	sched := scheduler.New(st, scraper.NewWithFetcher(nil, fetch), noopDispatcher{}, nil, feedsDir, 0)
	engine := NewServer(NewHandler(st, sched, feedsDir))

	return testEnv{engine: engine, state: st, feedsDir: feedsDir}
}

func (e testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func TestGetHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestGetConfigReturnsPresets(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/config", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var cfg state.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.NotEmpty(t, cfg.Sites)
	assert.Equal(t, 20, cfg.Distribution.DailyLimit)
}

func TestUpdateConfigPersists(t *testing.T) {
	env := newTestEnv(t, nil)

	cfg := env.state.Config()
	cfg.Distribution.DailyLimit = 50
	cfg.Updates.IntervalHours = 2

	rec := env.do(t, http.MethodPost, "/api/config", cfg)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, env.state.Config().Distribution.DailyLimit)
	assert.Equal(t, 2, env.state.Config().Updates.IntervalHours)
}

func TestUpdateConfigRejectsInvalid(t *testing.T) {
	env := newTestEnv(t, nil)

	cfg := env.state.Config()
	cfg.Updates.IntervalHours = 0
	rec := env.do(t, http.MethodPost, "/api/config", cfg)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cfg = env.state.Config()
	cfg.Distribution.SendTimes = []string{"25:99"}
	rec = env.do(t, http.MethodPost, "/api/config", cfg)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "HH:MM")
}

func TestUpsertSiteAddsAndReplaces(t *testing.T) {
	env := newTestEnv(t, nil)

	site := catalog.SiteDefinition{
		Name:          "lojinha",
		URL:           "https://lojinha.example.com",
		AffiliateType: catalog.AffiliateTag,
		AffiliateCode: "X20",
		Enabled:       true,
	}

	rec := env.do(t, http.MethodPost, "/api/sites", site)
	require.Equal(t, http.StatusOK, rec.Code)

	got, ok := env.state.Config().FindSite("lojinha")
	require.True(t, ok)
	assert.Equal(t, "X20", got.AffiliateCode)

	site.AffiliateCode = "Y30"
	rec = env.do(t, http.MethodPost, "/api/sites", site)
	require.Equal(t, http.StatusOK, rec.Code)

	got, _ = env.state.Config().FindSite("lojinha")
	assert.Equal(t, "Y30", got.AffiliateCode)
}

func TestUpsertSiteRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/sites", catalog.SiteDefinition{Name: "semurl"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSite(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodDelete, "/api/sites/amazon", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, ok := env.state.Config().FindSite("amazon")
	assert.False(t, ok)

	rec = env.do(t, http.MethodDelete, "/api/sites/amazon", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListFeeds(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/feeds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":0`)

	require.NoError(t, os.WriteFile(filepath.Join(env.feedsDir, "lojinha_promocoes.xml"), []byte("<rss/>"), 0o644))

	rec = env.do(t, http.MethodGet, "/api/feeds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lojinha_promocoes.xml")
	assert.Contains(t, rec.Body.String(), "/feeds/lojinha_promocoes.xml")
}

func TestGetFeed(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/feeds/missing_promocoes.xml", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, os.WriteFile(filepath.Join(env.feedsDir, "lojinha_promocoes.xml"), []byte("<rss/>"), 0o644))

	rec = env.do(t, http.MethodGet, "/feeds/lojinha_promocoes.xml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<rss/>", rec.Body.String())
}

func TestGetFeedRejectsNonXML(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/feeds/config.json", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerRun(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/process/now", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestTriggerRunConflictWhileBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	fetch := func(url string) (io.Reader, error) {
		once.Do(func() { close(started) })
		<-release
		return strings.NewReader("<html></html>"), nil
	}
	env := newTestEnv(t, fetch)
	require.NoError(t, env.state.UpdateConfig(func(cfg *state.Config) {
		for i := range cfg.Sites {
			cfg.Sites[i].Enabled = true
		}
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		env.do(t, http.MethodPost, "/api/process/now", nil)
	}()

	<-started
	rec := env.do(t, http.MethodPost, "/api/process/now", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(release)
	<-done
}
