// Package api exposes the operator-facing HTTP surface: configuration,
// statistics, site management, feed retrieval and manual pipeline
// triggers.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ofertasbr/promofeeds/internal/scheduler"
	"ofertasbr/promofeeds/internal/state"
	"ofertasbr/promofeeds/logger"
)

// NewServer builds the gin engine with all routes configured.
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(corsMiddleware())

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/api/health", handler.GetHealth)

	r.GET("/api/config", handler.GetConfig)
	r.POST("/api/config", handler.UpdateConfig)

	r.GET("/api/stats", handler.GetStats)

	r.GET("/api/sites", handler.ListSites)
	r.POST("/api/sites", handler.UpsertSite)
	r.DELETE("/api/sites/:name", handler.DeleteSite)

	r.GET("/api/feeds", handler.ListFeeds)
	r.GET("/feeds/:name", handler.GetFeed)

	r.POST("/api/process/now", handler.TriggerRun)
	r.POST("/api/feeds/generate-all", handler.TriggerRun)
}

// Handler carries the dependencies of every route.
type Handler struct {
	state     *state.State
	scheduler *scheduler.Scheduler
	feedsDir  string
}

// NewHandler wires the shared state, the scheduler and the feeds
// directory into the HTTP layer.
func NewHandler(st *state.State, sched *scheduler.Scheduler, feedsDir string) *Handler {
	return &Handler{
		state:     st,
		scheduler: sched,
		feedsDir:  feedsDir,
	}
}

func requestLogger() gin.HandlerFunc {
	log := logger.ForComponent("http")
	return func(c *gin.Context) {
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("Request handled")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
