package handlers

import (
	"plantsim/internal/logger"
	"plantsim/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health and Prometheus endpoints
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Minimal WebSocket connection (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerPlantRoutes(api)
		h.registerBatchRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerPlantRoutes(api *gin.RouterGroup) {
	plant := api.Group("/plant")
	{
		plant.POST("/start", h.startPlant)
		plant.POST("/stop", h.stopPlant)
		plant.GET("/state", h.getState)
	}
	machines := api.Group("/machines")
	{
		machines.GET("/:id", h.getMachine)
		machines.POST("/:id/trigger", h.triggerMachine)
	}
}

func (h *Handler) registerBatchRoutes(api *gin.RouterGroup) {
	batches := api.Group("/batches")
	{
		batches.GET("/:id", h.getBatch)
		batches.POST("/:id/stages/:machine", h.advanceStage)
		batches.POST("/:id/stages/:machine/retry", h.retryStage)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
