package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"

	"appointment-queue-backend/internal/dashboard"
	"appointment-queue-backend/internal/engine"
	"appointment-queue-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	engine  *engine.Engine
	stats   *dashboard.Aggregator
	cache   *cache.Cache
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, eng *engine.Engine, agg *dashboard.Aggregator, cacheStore *cache.Cache, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		engine:  eng,
		stats:   agg,
		cache:   cacheStore,
		webpush: webpushOptions,
	}
}

// invalidateCache drops every cached GET response. Called after any write, so
// cached aggregate views are recomputed on the next read.
func (h *Handler) invalidateCache() {
	h.cache.Flush()
}
