package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"appointment-queue-backend/internal/dashboard"
	"appointment-queue-backend/internal/engine"
	"appointment-queue-backend/internal/mw"
	"appointment-queue-backend/internal/store"
)

// RouterConfig tunes the HTTP middleware.
type RouterConfig struct {
	RateLimit rate.Limit
	RateBurst int
	CacheTTL  time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, eng *engine.Engine, agg *dashboard.Aggregator, webpushOptions *webpush.Options, rc RouterConfig) *gin.Engine {
	r := gin.Default()

	cacheStore := cache.New(rc.CacheTTL, 2*rc.CacheTTL)
	caching := mw.Cache(cacheStore, rc.CacheTTL)
	rateLimiter := mw.RateLimiter(rc.RateLimit, rc.RateBurst)

	handler := NewHandler(s, eng, agg, cacheStore, webpushOptions)

	api := r.Group("/api/v1")
	api.Use(rateLimiter)
	{
		api.GET("/appointment", handler.ListAppointments)
		api.POST("/appointment", handler.CreateAppointment)
		api.GET("/appointment/waiting-queue", handler.GetWaitingQueue)
		api.PATCH("/appointment/assign-queue", handler.AssignQueue)
		api.GET("/appointment/:id", handler.GetAppointment)
		api.PATCH("/appointment/:id", handler.UpdateAppointment)
		api.DELETE("/appointment/:id", handler.DeleteAppointment)

		api.GET("/staff", handler.ListStaff)
		api.POST("/staff", handler.CreateStaff)
		api.PATCH("/staff/:id", handler.UpdateStaff)
		api.DELETE("/staff/:id", handler.DeleteStaff)

		api.GET("/service", handler.ListServices)
		api.POST("/service", handler.CreateService)
		api.GET("/service/:id", handler.GetService)
		api.PATCH("/service/:id", handler.UpdateService)
		api.DELETE("/service/:id", handler.DeleteService)

		api.GET("/dashboard/stats", caching, handler.GetDashboardStats)
		api.GET("/activity-log", caching, handler.GetActivityLog)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
