package routes

import (
	"bloodlink/internal/handlers"
	"bloodlink/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRequestRoutes sets up routes for the blood-request lifecycle
func SetupRequestRoutes(r *gin.RouterGroup, requestHandler *handlers.RequestHandler, jwtSecret string) {
	requests := r.Group("/requests")
	requests.Use(middleware.AuthRequired(jwtSecret))
	{
		requests.POST("", middleware.RequesterRequired(), requestHandler.Create)
		requests.GET("/incoming", middleware.DonorRequired(), requestHandler.ListIncoming)
		requests.GET("/outgoing", middleware.RequesterRequired(), requestHandler.ListOutgoing)
		requests.GET("/nearby", middleware.DonorRequired(), requestHandler.ListNearby)
		requests.GET("/:id", requestHandler.Get)
		requests.PUT("/:id/status", requestHandler.UpdateStatus)
	}
}
