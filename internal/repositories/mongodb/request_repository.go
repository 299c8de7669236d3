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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type requestRepository struct {
	collection *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) interfaces.RequestRepository {
	return &requestRepository{
		collection: db.Collection("blood_requests"),
	}
}

func (r *requestRepository) Create(ctx context.Context, request *models.BloodRequest) error {
	request.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, request)
	if err != nil {
		// The partial unique index on (requester_id, donor_id, status=pending)
		// turns a create race into a duplicate-key error for the loser.
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewEngineError(utils.ErrKindDuplicatePending, "a pending request for this donor already exists")
		}
		return fmt.Errorf("failed to create blood request: %w", err)
	}

	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BloodRequest, error) {
	var request models.BloodRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewEngineError(utils.ErrKindNotFound, "blood request not found")
		}
		return nil, fmt.Errorf("failed to get blood request: %w", err)
	}

	return &request, nil
}

func (r *requestRepository) UpdateStatusCAS(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus, updates map[string]interface{}) error {
	set := bson.M{"status": to}
	for k, v := range updates {
		set[k] = v
	}

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewEngineError(utils.ErrKindStateConflict, "request status changed concurrently")
	}

	return nil
}

func (r *requestRepository) GetByDonor(ctx context.Context, donorID primitive.ObjectID, status *models.RequestStatus, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error) {
	filter := bson.M{"donor_id": donorID}
	if status != nil {
		filter["status"] = *status
	}
	return r.findRequestsWithFilter(ctx, filter, params)
}

func (r *requestRepository) GetByRequester(ctx context.Context, requesterID primitive.ObjectID, status *models.RequestStatus, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error) {
	filter := bson.M{"requester_id": requesterID}
	if status != nil {
		filter["status"] = *status
	}
	return r.findRequestsWithFilter(ctx, filter, params)
}

func (r *requestRepository) SearchNearbyPending(ctx context.Context, lat, lng, radiusMeters float64, bloodType *models.BloodType, urgency *models.UrgencyLevel, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error) {
	filter := bson.M{
		"status": models.RequestStatusPending,
		"location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{lng, lat},
				},
				"$maxDistance": radiusMeters,
			},
		},
	}
	if bloodType != nil {
		filter["blood_type"] = *bloodType
	}
	if urgency != nil {
		filter["urgency"] = *urgency
	}

	// $near cannot be combined with a count query, so page without a total.
	opts := options.Find().
		SetSkip(int64(params.GetSkip())).
		SetLimit(int64(params.GetLimit()))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search nearby requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*models.BloodRequest
	for cursor.Next(ctx) {
		var request models.BloodRequest
		if err := cursor.Decode(&request); err != nil {
			return nil, 0, fmt.Errorf("failed to decode blood request: %w", err)
		}
		requests = append(requests, &request)
	}

	return requests, int64(len(requests)), nil
}

func (r *requestRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*models.BloodRequest, error) {
	filter := bson.M{
		"status":     models.RequestStatusPending,
		"expires_at": bson.M{"$lt": now},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "expires_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*models.BloodRequest
	for cursor.Next(ctx) {
		var request models.BloodRequest
		if err := cursor.Decode(&request); err != nil {
			return nil, fmt.Errorf("failed to decode blood request: %w", err)
		}
		requests = append(requests, &request)
	}

	return requests, nil
}

func (r *requestRepository) findRequestsWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count blood requests: %w", err)
	}

	opts := params.GetSortOptions()
	if params.Sort == "created_at" || params.Sort == "" {
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find blood requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*models.BloodRequest
	for cursor.Next(ctx) {
		var request models.BloodRequest
		if err := cursor.Decode(&request); err != nil {
			return nil, 0, fmt.Errorf("failed to decode blood request: %w", err)
		}
		requests = append(requests, &request)
	}

	return requests, total, nil
}
