package handlers

import (
	"bloodlink/internal/config"
	"bloodlink/internal/middleware"
	"bloodlink/internal/models"
	"bloodlink/internal/services"
	"bloodlink/internal/utils"
	"bloodlink/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestHandler struct {
	requestService services.RequestService
	config         *config.EngineConfig
}

func NewRequestHandler(requestService services.RequestService, cfg *config.EngineConfig) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		config:         cfg,
	}
}

// Create handles POST /requests
func (h *RequestHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var req validators.CreateBloodRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return
	}
	if errs := validators.ValidateCreateBloodRequest(&req); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	donorID, err := primitive.ObjectIDFromHex(req.DonorID)
	if err != nil {
		utils.BadRequestResponse(c, "invalid donor id")
		return
	}

	request, err := h.requestService.Create(c.Request.Context(), &services.CreateRequestInput{
		RequesterUserID: userID,
		DonorID:         donorID,
		BloodType:       models.BloodType(req.BloodType),
		Urgency:         models.UrgencyLevel(req.Urgency),
		Message:         req.Message,
		Lat:             req.Latitude,
		Lng:             req.Longitude,
		Address:         req.Address,
	})
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Blood request created", request)
}

// Get handles GET /requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "invalid request id")
		return
	}

	request, err := h.requestService.GetByID(c.Request.Context(), requestID, userID)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Blood request", request)
}

// UpdateStatus handles PUT /requests/:id/status
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "invalid request id")
		return
	}

	var req validators.UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body")
		return
	}
	if errs := validators.ValidateUpdateRequestStatus(&req); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	request, err := h.requestService.Transition(
		c.Request.Context(), requestID, userID, models.RequestStatus(req.Status), req.Message)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Request status updated", request)
}

// ListIncoming handles GET /requests/incoming (donor side)
func (h *RequestHandler) ListIncoming(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	status, valid := statusFilter(c)
	if !valid {
		utils.BadRequestResponse(c, "invalid status filter")
		return
	}
	params := utils.GetPaginationParams(c)

	requests, total, err := h.requestService.ListForDonor(c.Request.Context(), userID, status, params)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Incoming requests", requests, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// ListOutgoing handles GET /requests/outgoing (requester side)
func (h *RequestHandler) ListOutgoing(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	status, valid := statusFilter(c)
	if !valid {
		utils.BadRequestResponse(c, "invalid status filter")
		return
	}
	params := utils.GetPaginationParams(c)

	requests, total, err := h.requestService.ListForRequester(c.Request.Context(), userID, status, params)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Outgoing requests", requests, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

// ListNearby handles GET /requests/nearby
func (h *RequestHandler) ListNearby(c *gin.Context) {
	var query validators.NearbyRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "invalid query parameters")
		return
	}
	if errs := validators.ValidateNearbyRequestsQuery(&query); len(errs) > 0 {
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
	var urgency *models.UrgencyLevel
	if query.Urgency != "" {
		u := models.UrgencyLevel(query.Urgency)
		urgency = &u
	}

	params := utils.GetPaginationParams(c)
	requests, _, err := h.requestService.FindNearbyRequests(
		c.Request.Context(), query.Latitude, query.Longitude, radius, bloodType, urgency, params)
	if err != nil {
		utils.EngineErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Nearby requests", requests, &utils.Meta{
		Count: len(requests),
	})
}

func statusFilter(c *gin.Context) (*models.RequestStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}
	status := models.RequestStatus(raw)
	if !models.IsValidRequestStatus(status) {
		return nil, false
	}
	return &status, true
}
