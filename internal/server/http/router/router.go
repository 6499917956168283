package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/plan2d/fulfillment/internal/server/http/handlers"
	"github.com/plan2d/fulfillment/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.FulfillmentFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	orderHandler := handlers.NewOrderHandler(facade)
	downloadHandler := handlers.NewDownloadHandler(facade)
	adminHandler := handlers.NewAdminHandler(facade)

	api := engine.Group("/api")
	api.POST("/orders", orderHandler.Create)
	api.GET("/orders", orderHandler.ListByEmail)
	api.GET("/orders/:number", orderHandler.ByNumber)
	api.GET("/download/:token", downloadHandler.Download)

	admin := api.Group("/admin")
	admin.Use(middleware.ReviewerAuth(facade))
	admin.GET("/orders", adminHandler.List)
	admin.POST("/orders/:id/approve", adminHandler.Approve)
	admin.POST("/orders/:id/reject", adminHandler.Reject)
	admin.POST("/orders/:id/refund", adminHandler.Refund)
	admin.POST("/orders/:id/quota/reset", adminHandler.ResetQuota)
	admin.POST("/bulk/approve", adminHandler.BulkApprove)
	admin.POST("/bulk/reject", adminHandler.BulkReject)

	return engine
}
