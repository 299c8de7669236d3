package handlers

import (
	"bloodlink/internal/middleware"
	"bloodlink/internal/services"
	"bloodlink/internal/utils"

	"github.com/gin-gonic/gin"
)

type DonationHandler struct {
	donationService services.DonationService
}

func NewDonationHandler(donationService services.DonationService) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

// DonorHistory handles GET /donations/history for donors
func (h *DonationHandler) DonorHistory(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	records, total, err := h.donationService.GetDonorHistory(c.Request.Context(), userID, params)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Donation history", records, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// RequesterHistory handles GET /donations/received for requesters
func (h *DonationHandler) RequesterHistory(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	records, total, err := h.donationService.GetRequesterHistory(c.Request.Context(), userID, params)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Received donations", records, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// DonorStats handles GET /donations/stats for donors
func (h *DonationHandler) DonorStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	stats, err := h.donationService.GetDonorStats(c.Request.Context(), userID)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Donor stats", stats)
}

// RequesterStats handles GET /donations/received/stats for requesters
func (h *DonationHandler) RequesterStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	stats, err := h.donationService.GetRequesterStats(c.Request.Context(), userID)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Requester stats", stats)
}
