package services

import (
	"context"
	"time"

	"bloodlink/internal/config"
	"bloodlink/internal/models"
	"bloodlink/internal/repositories/interfaces"
	"bloodlink/internal/utils"
	"bloodlink/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateRequestInput struct {
	RequesterUserID primitive.ObjectID
	DonorID         primitive.ObjectID
	BloodType       models.BloodType
	Urgency         models.UrgencyLevel
	Message         string
	Lat             float64
	Lng             float64
	Address         string
}

// RequestService owns the blood-request lifecycle: creation in pending,
// actor-authorized transitions with compare-and-swap writes, and the
// donation ledger append on completion.
type RequestService interface {
	Create(ctx context.Context, input *CreateRequestInput) (*models.BloodRequest, error)
	Transition(ctx context.Context, requestID, actingUserID primitive.ObjectID, target models.RequestStatus, message string) (*models.BloodRequest, error)
	GetByID(ctx context.Context, requestID, actingUserID primitive.ObjectID) (*models.BloodRequest, error)
	ListForDonor(ctx context.Context, donorUserID primitive.ObjectID, status *models.RequestStatus, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error)
	ListForRequester(ctx context.Context, requesterUserID primitive.ObjectID, status *models.RequestStatus, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error)
	FindNearbyRequests(ctx context.Context, lat, lng, radiusMeters float64, bloodType *models.BloodType, urgency *models.UrgencyLevel, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error)
}

type requestService struct {
	requestRepo   interfaces.RequestRepository
	donorRepo     interfaces.DonorRepository
	requesterRepo interfaces.RequesterRepository
	donations     DonationService
	cache         CacheService
	config        *config.EngineConfig
	logger        *logger.Logger
}

func NewRequestService(
	requestRepo interfaces.RequestRepository,
	donorRepo interfaces.DonorRepository,
	requesterRepo interfaces.RequesterRepository,
	donations DonationService,
	cacheService CacheService,
	cfg *config.EngineConfig,
	log *logger.Logger,
) RequestService {
	return &requestService{
		requestRepo:   requestRepo,
		donorRepo:     donorRepo,
		requesterRepo: requesterRepo,
		donations:     donations,
		cache:         cacheService,
		config:        cfg,
		logger:        log,
	}
}

func (s *requestService) Create(ctx context.Context, input *CreateRequestInput) (*models.BloodRequest, error) {
	if !models.IsValidBloodType(input.BloodType) {
		return nil, utils.NewEngineError(utils.ErrKindInvalidBloodType, "unknown blood type")
	}
	if !models.IsValidUrgency(input.Urgency) {
		return nil, utils.NewEngineError(utils.ErrKindValidation, "unknown urgency level")
	}
	if len(input.Message) > utils.MaxMessageLength {
		return nil, utils.NewEngineError(utils.ErrKindValidation, "message exceeds 500 characters")
	}
	if !utils.IsValidCoordinates(input.Lat, input.Lng) {
		return nil, utils.NewEngineError(utils.ErrKindValidation, "coordinates out of range")
	}

	requester, err := s.requesterRepo.GetByUserID(ctx, input.RequesterUserID)
	if err != nil {
		return nil, err
	}

	donor, err := s.donorRepo.GetByID(ctx, input.DonorID)
	if err != nil {
		return nil, err
	}
	if !donor.CanReceiveRequests() {
		return nil, utils.NewEngineError(utils.ErrKindDonorUnavailable, "donor is inactive or unavailable")
	}

	now := time.Now()
	request := &models.BloodRequest{
		RequesterID:     requester.ID,
		RequesterUserID: requester.UserID,
		DonorID:         donor.ID,
		DonorUserID:     donor.UserID,
		BloodType:       input.BloodType,
		Urgency:         input.Urgency,
		Message:         utils.SanitizeString(input.Message),
		Location:        models.NewLocation(input.Lat, input.Lng, input.Address),
		Contact:         requester.Contact(),
		Status:          models.RequestStatusPending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.config.RequestTTL),
	}

	if donor.CurrentLocation != nil {
		distance := utils.Distance(
			utils.Coordinate{Lat: input.Lat, Lng: input.Lng},
			utils.Coordinate{Lat: donor.CurrentLocation.Latitude(), Lng: donor.CurrentLocation.Longitude()},
		)
		eta := utils.EstimateETAMinutes(distance, s.config.AverageSpeedKMH)
		request.DistanceMeters = &distance
		request.EstimatedMinutes = &eta
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	s.cacheRequest(ctx, request)

	s.logger.LogRequestEvent(request.ID, utils.EventRequestCreated, map[string]interface{}{
		"requester_id": requester.ID.Hex(),
		"donor_id":     donor.ID.Hex(),
		"blood_type":   string(request.BloodType),
		"urgency":      string(request.Urgency),
	})

	return request, nil
}

func (s *requestService) Transition(ctx context.Context, requestID, actingUserID primitive.ObjectID, target models.RequestStatus, message string) (*models.BloodRequest, error) {
	if !models.IsValidRequestStatus(target) {
		return nil, utils.NewEngineError(utils.ErrKindInvalidStatus, "unknown request status")
	}
	if len(message) > utils.MaxMessageLength {
		return nil, utils.NewEngineError(utils.ErrKindValidation, "message exceeds 500 characters")
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.IsTerminal() {
		return nil, utils.NewEngineError(utils.ErrKindAlreadyTerminal, "request is already resolved")
	}

	if err := authorizeTransition(request, actingUserID, target); err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(target) {
		return nil, utils.NewEngineError(utils.ErrKindInvalidTransition, "transition not allowed from current status")
	}

	now := time.Now()
	updates := map[string]interface{}{}
	if message != "" {
		updates["response_message"] = utils.SanitizeString(message)
	}
	if target == models.RequestStatusAccepted {
		updates["accepted_at"] = now
	}
	if target.IsTerminal() {
		updates["resolved_at"] = now
	}

	if err := s.requestRepo.UpdateStatusCAS(ctx, requestID, request.Status, target, updates); err != nil {
		return nil, s.classifyCASFailure(ctx, requestID, err)
	}

	updated, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.cacheRequest(ctx, updated)

	s.logger.LogRequestEvent(requestID, transitionEvent(target), map[string]interface{}{
		"from":     string(request.Status),
		"to":       string(target),
		"actor_id": actingUserID.Hex(),
	})

	if target == models.RequestStatusCompleted {
		if _, err := s.donations.RecordCompletion(ctx, updated, now); err != nil {
			// The transition already committed; the ledger append is
			// idempotent and will be retried by reconciliation.
			s.logger.WithRequestID(requestID).WithError(err).Error("Failed to record donation for completed request")
		}
	}

	return updated, nil
}

// GetByID serves reads through the cache. Transitions always go back to the
// store, so a stale cached status can only be observed here and only within
// the cache TTL.
func (s *requestService) GetByID(ctx context.Context, requestID, actingUserID primitive.ObjectID) (*models.BloodRequest, error) {
	var cached models.BloodRequest
	if err := s.cache.Get(ctx, requestCacheKey(requestID), &cached); err == nil {
		return authorizeRead(&cached, actingUserID)
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.cacheRequest(ctx, request)

	return authorizeRead(request, actingUserID)
}

func (s *requestService) ListForDonor(ctx context.Context, donorUserID primitive.ObjectID, status *models.RequestStatus, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error) {
	if status != nil && !models.IsValidRequestStatus(*status) {
		return nil, 0, utils.NewEngineError(utils.ErrKindInvalidStatus, "unknown request status")
	}

	donor, err := s.donorRepo.GetByUserID(ctx, donorUserID)
	if err != nil {
		return nil, 0, err
	}

	return s.requestRepo.GetByDonor(ctx, donor.ID, status, params)
}

func (s *requestService) ListForRequester(ctx context.Context, requesterUserID primitive.ObjectID, status *models.RequestStatus, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error) {
	if status != nil && !models.IsValidRequestStatus(*status) {
		return nil, 0, utils.NewEngineError(utils.ErrKindInvalidStatus, "unknown request status")
	}

	requester, err := s.requesterRepo.GetByUserID(ctx, requesterUserID)
	if err != nil {
		return nil, 0, err
	}

	return s.requestRepo.GetByRequester(ctx, requester.ID, status, params)
}

func (s *requestService) FindNearbyRequests(ctx context.Context, lat, lng, radiusMeters float64, bloodType *models.BloodType, urgency *models.UrgencyLevel, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error) {
	if !utils.IsValidCoordinates(lat, lng) {
		return nil, 0, utils.NewEngineError(utils.ErrKindValidation, "coordinates out of range")
	}
	if radiusMeters <= 0 || radiusMeters > s.config.MaxRadiusMeters {
		return nil, 0, utils.NewEngineError(utils.ErrKindInvalidParameter, "search radius out of range")
	}
	if bloodType != nil && !models.IsValidBloodType(*bloodType) {
		return nil, 0, utils.NewEngineError(utils.ErrKindInvalidBloodType, "unknown blood type")
	}
	if urgency != nil && !models.IsValidUrgency(*urgency) {
		return nil, 0, utils.NewEngineError(utils.ErrKindValidation, "unknown urgency level")
	}

	return s.requestRepo.SearchNearbyPending(ctx, lat, lng, radiusMeters, bloodType, urgency, params)
}

// classifyCASFailure turns a bare CAS miss into the precise error the caller
// should see: the request may have been resolved (terminal) or raced by
// another transition.
func (s *requestService) classifyCASFailure(ctx context.Context, requestID primitive.ObjectID, casErr error) error {
	if !utils.IsKind(casErr, utils.ErrKindStateConflict) {
		return casErr
	}

	current, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return casErr
	}
	if current.IsTerminal() {
		return utils.NewEngineError(utils.ErrKindAlreadyTerminal, "request is already resolved")
	}

	return casErr
}

func (s *requestService) cacheRequest(ctx context.Context, request *models.BloodRequest) {
	if err := s.cache.Set(ctx, requestCacheKey(request.ID), request, utils.RequestCacheTTL); err != nil {
		s.logger.WithRequestID(request.ID).WithError(err).Warn("Failed to cache request")
	}
}

func requestCacheKey(id primitive.ObjectID) string {
	return utils.CacheRequestPrefix + id.Hex()
}

func authorizeRead(request *models.BloodRequest, actingUserID primitive.ObjectID) (*models.BloodRequest, error) {
	if request.DonorUserID != actingUserID && request.RequesterUserID != actingUserID {
		return nil, utils.NewEngineError(utils.ErrKindForbidden, "not a party to this request")
	}
	return request, nil
}

func authorizeTransition(request *models.BloodRequest, actingUserID primitive.ObjectID, target models.RequestStatus) error {
	switch target {
	case models.RequestStatusAccepted, models.RequestStatusRejected, models.RequestStatusCompleted:
		if request.DonorUserID != actingUserID {
			return utils.NewEngineError(utils.ErrKindForbidden, "only the targeted donor may perform this transition")
		}
	case models.RequestStatusCancelled:
		if request.RequesterUserID != actingUserID {
			return utils.NewEngineError(utils.ErrKindForbidden, "only the requester may cancel")
		}
	default:
		// pending and expired are never user-settable targets.
		return utils.NewEngineError(utils.ErrKindInvalidTransition, "status cannot be set directly")
	}

	return nil
}

func transitionEvent(target models.RequestStatus) string {
	switch target {
	case models.RequestStatusAccepted:
		return utils.EventRequestAccepted
	case models.RequestStatusRejected:
		return utils.EventRequestRejected
	case models.RequestStatusCancelled:
		return utils.EventRequestCancelled
	case models.RequestStatusCompleted:
		return utils.EventRequestCompleted
	case models.RequestStatusExpired:
		return utils.EventRequestExpired
	}
	return "request_updated"
}
