package interfaces

import (
	"context"
	"time"

	"bloodlink/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DonorRepository interface {
	Create(ctx context.Context, donor *models.Donor) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Donor, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Donor, error)

	// UpdateLocation applies a location update with last-write-wins
	// semantics: an update whose timestamp is older than the stored one is
	// silently dropped.
	UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location, bloodType models.BloodType) error
	SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error

	// SearchNearby returns available donors within radiusMeters of the
	// center, ascending by distance with ties broken by donor id.
	SearchNearby(ctx context.Context, lat, lng, radiusMeters float64, bloodType *models.BloodType, limit int) ([]*models.DonorMatch, error)

	UpdateStats(ctx context.Context, id primitive.ObjectID, totalDonations int64, lastDonationAt *time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
