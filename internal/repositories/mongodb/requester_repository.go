package mongodb

import (
	"context"
	"fmt"
	"time"

	"bloodlink/internal/models"
	"bloodlink/internal/repositories/interfaces"
	"bloodlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type requesterRepository struct {
	collection *mongo.Collection
}

func NewRequesterRepository(db *mongo.Database) interfaces.RequesterRepository {
	return &requesterRepository{
		collection: db.Collection("requesters"),
	}
}

func (r *requesterRepository) Create(ctx context.Context, requester *models.Requester) error {
	requester.ID = primitive.NewObjectID()
	requester.CreatedAt = time.Now()
	requester.UpdatedAt = requester.CreatedAt

	_, err := r.collection.InsertOne(ctx, requester)
	if err != nil {
		return fmt.Errorf("failed to create requester: %w", err)
	}

	return nil
}

func (r *requesterRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Requester, error) {
	var requester models.Requester
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&requester)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewEngineError(utils.ErrKindNotFound, "requester not found")
		}
		return nil, fmt.Errorf("failed to get requester: %w", err)
	}

	return &requester, nil
}

func (r *requesterRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Requester, error) {
	var requester models.Requester
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&requester)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewEngineError(utils.ErrKindNotFound, "requester not found")
		}
		return nil, fmt.Errorf("failed to get requester by user: %w", err)
	}

	return &requester, nil
}

func (r *requesterRepository) UpdateStats(ctx context.Context, id primitive.ObjectID, totalReceived int64) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"total_received": totalReceived,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update requester stats: %w", err)
	}

	return nil
}
