package handlers

import (
	"bloodlink/internal/config"
	"bloodlink/internal/middleware"
	"bloodlink/internal/models"
	"bloodlink/internal/services"
	"bloodlink/internal/utils"
	"bloodlink/internal/validators"

	"github.com/gin-gonic/gin"
)

type DonorHandler struct {
	matchingService services.MatchingService
	config          *config.EngineConfig
}

func NewDonorHandler(matchingService services.MatchingService, cfg *config.EngineConfig) *DonorHandler {
	return &DonorHandler{
		matchingService: matchingService,
		config:          cfg,
	}
}

// UpdateLocation handles PUT /donors/location
func (h *DonorHandler) UpdateLocation(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var req validators.LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return
	}
	if errs := validators.ValidateLocationUpdate(&req); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	projection, err := h.matchingService.UpsertDonorLocation(
		c.Request.Context(), userID, req.Latitude, req.Longitude, req.Address, models.BloodType(req.BloodType))
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Location updated", projection)
}

// UpdateAvailability handles PUT /donors/availability
func (h *DonorHandler) UpdateAvailability(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var req validators.AvailabilityUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return
	}
	if errs := validators.ValidateAvailabilityUpdate(&req); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	donor, err := h.matchingService.SetDonorAvailability(c.Request.Context(), userID, *req.IsAvailable)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Availability updated", donor)
}

// FindNearby handles GET /donors/nearby
func (h *DonorHandler) FindNearby(c *gin.Context) {
	var query validators.NearbyDonorsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "invalid query parameters")
		return
	}
	if errs := validators.ValidateNearbyDonorsQuery(&query); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	radius := query.RadiusM
	if radius == 0 {
		radius = h.config.DefaultRadiusMeters
	}

	var bloodType *models.BloodType
	if query.BloodType != "" {
		bt := models.BloodType(query.BloodType)
		bloodType = &bt
	}

	matches, err := h.matchingService.FindNearbyDonors(
		c.Request.Context(), query.Latitude, query.Longitude, radius, bloodType, query.Limit)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Nearby donors", matches, &utils.Meta{
		Count: len(matches),
	})
}
