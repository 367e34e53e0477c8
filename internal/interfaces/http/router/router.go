package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/infrastructure/logger"
	"github.com/marketsync/backend/internal/interfaces/http/dto"
	"github.com/marketsync/backend/internal/interfaces/http/handler"
	"github.com/marketsync/backend/internal/interfaces/http/middleware"
)

// Webhook bodies from the marketplaces are small; anything above this is
// either misconfiguration or abuse.
const maxBodyBytes = 1 << 20

// Config carries everything the HTTP surface needs
type Config struct {
	Mode    string
	Logger  *zap.Logger
	System  *handler.SystemHandler
	Webhook *handler.WebhookHandler
	Sync    *handler.SyncHandler
}

// New builds the gin engine with middleware and all routes registered
func New(cfg Config) *gin.Engine {
	gin.SetMode(cfg.Mode)

	engine := gin.New()

	// Marketplaces probe webhook URLs with the wrong verb; a known path with
	// the wrong method must answer 405, not 404.
	engine.HandleMethodNotAllowed = true
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed,
			dto.NewErrorResponse(dto.ErrCodeMethodNotAllowed, "method not allowed"))
	})

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.BodyLimit(maxBodyBytes),
	)

	registerProbes(engine, cfg.System)
	registerWebhooks(engine, cfg.Webhook)
	registerSyncAPI(engine, cfg.Sync)

	return engine
}

func registerProbes(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/healthz", system.Healthz)
	engine.GET("/readyz", system.Readyz)
}

// Webhook endpoints live outside the versioned API group: their paths are
// registered with the marketplaces and must stay stable.
func registerWebhooks(engine *gin.Engine, webhook *handler.WebhookHandler) {
	engine.POST("/webhooks/:marketplace", webhook.Receive)
}

func registerSyncAPI(engine *gin.Engine, sync *handler.SyncHandler) {
	api := engine.Group("/api/v1/sync")

	api.POST("/cycles", sync.RunAllCycles)
	api.POST("/cycles/:marketplace", sync.RunCycle)

	api.POST("/products", sync.EnqueueProduct)
	api.POST("/orders/status", sync.EnqueueOrderStatus)

	api.GET("/jobs", sync.ListJobs)
	api.GET("/jobs/:id", sync.GetJob)
	api.POST("/jobs/:id/requeue", sync.RequeueJob)

	api.GET("/product-mappings", sync.ListProductMappings)
	api.GET("/order-mappings", sync.ListOrderMappings)
	api.GET("/webhook-events", sync.ListWebhookEvents)

	api.GET("/marketplaces/:marketplace/stats", sync.Stats)
}
