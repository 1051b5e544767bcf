package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/handler"
	"dispatch/internal/middleware"
	internalRedis "dispatch/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler     *handler.RideHandler
	DispatchHandler *handler.DispatchHandler
	FareHandler     *handler.FareHandler
	WalletHandler   *handler.WalletHandler
	DriverHandler   *handler.DriverHandler
	SessionHandler  *handler.SessionHandler
	SessionStore    internalRedis.SessionStoreInterface
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Session routes, the only unauthenticated surface besides health.
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", deps.SessionHandler.CreateSession)
			sessions.DELETE("", middleware.SessionMiddleware(deps.SessionStore), deps.SessionHandler.DeleteSession)
		}

		authed := v1.Group("")
		authed.Use(middleware.SessionMiddleware(deps.SessionStore))

		// Ride routes.
		rides := authed.Group("/rides")
		{
			rides.POST("", deps.RideHandler.BookRide)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.GET("/:id/events", deps.RideHandler.GetRideEvents)
			rides.POST("/:id/accept", middleware.RequireRole("driver"), deps.DispatchHandler.AcceptRide)
			rides.POST("/:id/reject", middleware.RequireRole("driver"), deps.DispatchHandler.RejectRide)
			rides.POST("/:id/cancel", deps.DispatchHandler.CancelRide)
			rides.POST("/:id/status", middleware.RequireRole("driver"), deps.DispatchHandler.UpdateRideStatus)
			rides.POST("/:id/fare", deps.FareHandler.FinalizeFare)
			rides.POST("/:id/pings", middleware.RequireRole("driver"), deps.DriverHandler.LogRidePing)
		}

		// Rider routes.
		riders := authed.Group("/riders")
		{
			riders.GET("/:id/rides", deps.RideHandler.ListRiderRides)
		}

		// Driver routes.
		drivers := authed.Group("/drivers")
		{
			drivers.PUT("/:id/location", middleware.RequireRole("driver"), deps.DriverHandler.UpdateLocation)
			drivers.GET("/:id/candidates", middleware.RequireRole("driver"), deps.DispatchHandler.GetCandidates)
		}

		// Fare routes.
		fares := authed.Group("/fares")
		{
			fares.POST("/quote", deps.FareHandler.QuoteFare)
		}
		authed.PUT("/pricing", deps.FareHandler.SetPricing)
		authed.POST("/surge", deps.FareHandler.AddSurge)

		// Wallet routes.
		wallets := authed.Group("/wallets")
		{
			wallets.POST("", deps.WalletHandler.CreateWallet)
			wallets.GET("/:id", deps.WalletHandler.GetWallet)
			wallets.POST("/:id/credit", deps.WalletHandler.Credit)
			wallets.POST("/:id/debit", deps.WalletHandler.Debit)
			wallets.GET("/:id/transactions", deps.WalletHandler.ListTransactions)
		}
	}

	return router
}
