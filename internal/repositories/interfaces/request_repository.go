package interfaces

import (
	"context"
	"time"

	"bloodlink/internal/models"
	"bloodlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestRepository interface {
	// Create inserts a new request. A live duplicate for the same
	// (requester, donor) pair fails with ErrKindDuplicatePending.
	Create(ctx context.Context, request *models.BloodRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.BloodRequest, error)

	// UpdateStatusCAS writes the new status only if the stored status still
	// equals from. When it no longer matches, the call fails with
	// ErrKindStateConflict and the caller decides how to classify it.
	UpdateStatusCAS(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus, updates map[string]interface{}) error

	GetByDonor(ctx context.Context, donorID primitive.ObjectID, status *models.RequestStatus, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error)
	GetByRequester(ctx context.Context, requesterID primitive.ObjectID, status *models.RequestStatus, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error)

	// SearchNearbyPending is donor-side discovery of open requests around a
	// point, newest first.
	SearchNearbyPending(ctx context.Context, lat, lng, radiusMeters float64, bloodType *models.BloodType, urgency *models.UrgencyLevel, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error)

	// FindExpiredPending returns pending requests whose expiry timestamp has
	// passed, bounded by limit.
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*models.BloodRequest, error)
}
