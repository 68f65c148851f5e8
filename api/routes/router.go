// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"reservio/internal/availability"
	"reservio/internal/capacity"
	"reservio/internal/pricing"
	"reservio/internal/reservations"
	"reservio/internal/resources"
	"reservio/internal/shared/config"
	"reservio/internal/shared/database"
	"reservio/pkg/cache"
	"reservio/pkg/clock"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	clk    clock.Clock

	// Kept for cross-module dependency injection
	cacheService       cache.Service
	capacityStore      *capacity.SQLStore
	resourceService    resources.Service
	reservationService reservations.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, clk clock.Clock) *Router {
	return &Router{
		config: cfg,
		db:     db,
		clk:    clk,
	}
}

// ReservationService exposes the reservation service for the payment
// consumer and background sweeps wired up in main.
func (r *Router) ReservationService() reservations.Service {
	return r.reservationService
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Shared infrastructure
	if r.db.Redis != nil {
		r.cacheService = cache.NewService(r.db.GetRedisClient())
	}
	r.capacityStore = capacity.NewStore(r.db.GetPostgreSQL())

	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Resource routes first: the catalog feeds the reservation flow
		r.setupResourceRoutes(api)

		r.setupReservationRoutes(api)

		r.setupAvailabilityRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "reservio-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "reservio-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupResourceRoutes configures catalog and capacity management routes
func (r *Router) setupResourceRoutes(rg *gin.RouterGroup) {
	resourceRepo := resources.NewRepository(r.db.GetPostgreSQL())
	resourceService := resources.NewService(resourceRepo, r.capacityStore, r.clk)

	if r.cacheService != nil {
		resourceService.SetCacheService(r.cacheService)
	}

	r.resourceService = resourceService

	resourceController := resources.NewController(resourceService)
	resources.SetupResourceRoutes(rg, resourceController)
}

// setupReservationRoutes configures the reservation lifecycle routes
func (r *Router) setupReservationRoutes(rg *gin.RouterGroup) {
	reservationRepo := reservations.NewRepository(r.db.GetPostgreSQL())
	pricer := pricing.NewService()

	reservationService := reservations.NewService(
		reservationRepo,
		r.capacityStore,
		r.resourceService,
		pricer,
		r.clk,
		r.config.Holds,
	)

	if r.cacheService != nil {
		reservationService.SetCacheService(r.cacheService)
	}

	r.reservationService = reservationService

	reservationController := reservations.NewController(reservationService)
	reservations.SetupReservationRoutes(rg, reservationController)
}

// setupAvailabilityRoutes configures the read-side availability routes
func (r *Router) setupAvailabilityRoutes(rg *gin.RouterGroup) {
	availabilityService := availability.NewService(r.capacityStore, r.resourceService)

	if r.cacheService != nil {
		availabilityService.SetCacheService(r.cacheService)
	}

	availabilityController := availability.NewController(availabilityService)
	availability.SetupAvailabilityRoutes(rg, availabilityController)
}
