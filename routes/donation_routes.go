package routes

import (
	"bloodlink/internal/handlers"
	"bloodlink/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupDonationRoutes sets up routes for the donation ledger
func SetupDonationRoutes(r *gin.RouterGroup, donationHandler *handlers.DonationHandler, jwtSecret string) {
	donations := r.Group("/donations")
	donations.Use(middleware.AuthRequired(jwtSecret))
	{
		donations.GET("/history", middleware.DonorRequired(), donationHandler.DonorHistory)
		donations.GET("/stats", middleware.DonorRequired(), donationHandler.DonorStats)
		donations.GET("/received", middleware.RequesterRequired(), donationHandler.RequesterHistory)
		donations.GET("/received/stats", middleware.RequesterRequired(), donationHandler.RequesterStats)
	}
}
