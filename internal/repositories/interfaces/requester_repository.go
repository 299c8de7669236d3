package interfaces

import (
	"context"

	"bloodlink/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequesterRepository interface {
	Create(ctx context.Context, requester *models.Requester) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Requester, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Requester, error)
	UpdateStats(ctx context.Context, id primitive.ObjectID, totalReceived int64) error
}
