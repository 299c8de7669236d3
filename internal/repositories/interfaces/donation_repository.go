package interfaces

import (
	"context"

	"bloodlink/internal/models"
	"bloodlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DonationRepository interface {
	// Create appends a donation record. Appending twice for the same
	// request is a no-op, enforced by a unique index on request_id.
	Create(ctx context.Context, record *models.DonationRecord) error
	GetByRequestID(ctx context.Context, requestID primitive.ObjectID) (*models.DonationRecord, error)

	GetByDonor(ctx context.Context, donorID primitive.ObjectID, params *utils.PaginationParams) ([]*models.DonationRecord, int64, error)
	GetByRequester(ctx context.Context, requesterID primitive.ObjectID, params *utils.PaginationParams) ([]*models.DonationRecord, int64, error)

	GetDonorStats(ctx context.Context, donorID primitive.ObjectID) (*models.DonorStats, error)
	GetRequesterStats(ctx context.Context, requesterID primitive.ObjectID) (*models.RequesterStats, error)
}
