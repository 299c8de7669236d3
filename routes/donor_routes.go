package routes

import (
	"bloodlink/internal/handlers"
	"bloodlink/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupDonorRoutes sets up routes for donor location and discovery
func SetupDonorRoutes(r *gin.RouterGroup, donorHandler *handlers.DonorHandler, jwtSecret string) {
	donors := r.Group("/donors")
	donors.Use(middleware.AuthRequired(jwtSecret))
	{
		// Donor-only self management
		donors.PUT("/location", middleware.DonorRequired(), donorHandler.UpdateLocation)
		donors.PUT("/availability", middleware.DonorRequired(), donorHandler.UpdateAvailability)

		// Any authenticated user may search
		donors.GET("/nearby", donorHandler.FindNearby)
	}
}
