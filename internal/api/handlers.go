package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ofertasbr/promofeeds/internal/catalog"
	"ofertasbr/promofeeds/internal/scheduler"
	"ofertasbr/promofeeds/internal/state"
	"ofertasbr/promofeeds/logger"
)

func (h *Handler) GetHealth(c *gin.Context) {
	cfg := h.state.Config()
	stats := h.state.Stats()

	health := gin.H{
		"status":          "ok",
		"timestamp":       time.Now().Format(time.RFC3339),
		"running":         h.scheduler.Running(),
		"setup_completed": cfg.SetupCompleted,
		"sites":           len(cfg.Sites),
	}
	if stats.LastUpdate != nil {
		health["last_update"] = stats.LastUpdate.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.Config())
}

// UpdateConfig replaces the operator configuration wholesale. The
// payload is the same document GetConfig returns.
func (h *Handler) UpdateConfig(c *gin.Context) {
	var incoming state.Config
	if err := c.ShouldBindJSON(&incoming); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid config payload: " + err.Error()})
		return
	}

	if msg := validateConfig(incoming); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": msg})
		return
	}

	if err := h.state.UpdateConfig(func(cfg *state.Config) {
		*cfg = incoming
	}); err != nil {
		logger.ForComponent("api").Error().Err(err).Msg("Failed to persist config")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to persist config"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func validateConfig(cfg state.Config) string {
	if cfg.Updates.IntervalHours < 1 {
		return "updates.interval_hours must be at least 1"
	}
	if cfg.Distribution.DailyLimit < 0 {
		return "distribution.daily_limit must not be negative"
	}
	if cfg.Distribution.ProductsPerInterval < 0 {
		return "distribution.products_per_interval must not be negative"
	}
	for _, sendTime := range cfg.Distribution.SendTimes {
		if _, err := time.Parse("15:04", sendTime); err != nil {
			return "distribution.send_times entries must be HH:MM"
		}
	}
	for _, site := range cfg.Sites {
		if site.Name == "" || site.URL == "" {
			return "every site needs a name and a url"
		}
	}
	return ""
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := h.state.Stats()
	c.JSON(http.StatusOK, gin.H{
		"stats":           stats,
		"quota_remaining": h.state.QuotaRemaining(),
		"running":         h.scheduler.Running(),
	})
}

func (h *Handler) ListSites(c *gin.Context) {
	sites := h.state.Config().Sites
	c.JSON(http.StatusOK, gin.H{"sites": sites, "total": len(sites)})
}

// UpsertSite adds a site definition, replacing an existing one with the
// same name.
func (h *Handler) UpsertSite(c *gin.Context) {
	var site catalog.SiteDefinition
	if err := c.ShouldBindJSON(&site); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid site payload: " + err.Error()})
		return
	}
	if site.Name == "" || site.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "site name and url are required"})
		return
	}

	if err := h.state.UpdateConfig(func(cfg *state.Config) {
		for i, existing := range cfg.Sites {
			if existing.Name == site.Name {
				cfg.Sites[i] = site
				return
			}
		}
		cfg.Sites = append(cfg.Sites, site)
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to persist config"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "site": site.Name})
}

func (h *Handler) DeleteSite(c *gin.Context) {
	name := c.Param("name")

	found := false
	if err := h.state.UpdateConfig(func(cfg *state.Config) {
		for i, existing := range cfg.Sites {
			if existing.Name == name {
				cfg.Sites = append(cfg.Sites[:i], cfg.Sites[i+1:]...)
				found = true
				return
			}
		}
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to persist config"})
		return
	}

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "site not found: " + name})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListFeeds(c *gin.Context) {
	entries, err := os.ReadDir(h.feedsDir)
	if err != nil && !os.IsNotExist(err) {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to read feeds directory"})
		return
	}

	feeds := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xml") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		feeds = append(feeds, gin.H{
			"name":     entry.Name(),
			"url":      "/feeds/" + entry.Name(),
			"size":     info.Size(),
			"modified": info.ModTime().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"feeds": feeds, "total": len(feeds)})
}

func (h *Handler) GetFeed(c *gin.Context) {
	// Base strips any path traversal attempt from the parameter.
	name := filepath.Base(c.Param("name"))
	if !strings.HasSuffix(name, ".xml") {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "feed name must end in .xml"})
		return
	}

	data, err := os.ReadFile(filepath.Join(h.feedsDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "feed not found: " + name})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to read feed"})
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, string(data))
}

// TriggerRun starts a pipeline run immediately. A run already in flight
// yields 409 without side effects.
func (h *Handler) TriggerRun(c *gin.Context) {
	result, err := h.scheduler.TriggerNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, scheduler.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "a pipeline run is already in progress"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "result": result})
}
