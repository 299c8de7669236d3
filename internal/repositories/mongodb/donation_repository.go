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

type donationRepository struct {
	collection *mongo.Collection
}

func NewDonationRepository(db *mongo.Database) interfaces.DonationRepository {
	return &donationRepository{
		collection: db.Collection("donations"),
	}
}

func (r *donationRepository) Create(ctx context.Context, record *models.DonationRecord) error {
	record.ID = primitive.NewObjectID()

	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		// The unique index on request_id makes the append idempotent.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to create donation record: %w", err)
	}

	return nil
}

func (r *donationRepository) GetByRequestID(ctx context.Context, requestID primitive.ObjectID) (*models.DonationRecord, error) {
	var record models.DonationRecord
	err := r.collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewEngineError(utils.ErrKindNotFound, "donation record not found")
		}
		return nil, fmt.Errorf("failed to get donation record: %w", err)
	}

	return &record, nil
}

func (r *donationRepository) GetByDonor(ctx context.Context, donorID primitive.ObjectID, params *utils.PaginationParams) ([]*models.DonationRecord, int64, error) {
	return r.findDonationsWithFilter(ctx, bson.M{"donor_id": donorID}, params)
}

func (r *donationRepository) GetByRequester(ctx context.Context, requesterID primitive.ObjectID, params *utils.PaginationParams) ([]*models.DonationRecord, int64, error) {
	return r.findDonationsWithFilter(ctx, bson.M{"requester_id": requesterID}, params)
}

func (r *donationRepository) GetDonorStats(ctx context.Context, donorID primitive.ObjectID) (*models.DonorStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"donor_id": donorID}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$donor_id",
			"total":         bson.M{"$sum": 1},
			"last_donation": bson.M{"$max": "$completed_at"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate donor stats: %w", err)
	}
	defer cursor.Close(ctx)

	stats := &models.DonorStats{DonorID: donorID}
	if cursor.Next(ctx) {
		var result struct {
			Total        int64     `bson:"total"`
			LastDonation time.Time `bson:"last_donation"`
		}
		if err := cursor.Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode donor stats: %w", err)
		}
		stats.TotalDonations = result.Total
		if !result.LastDonation.IsZero() {
			stats.LastDonationAt = &result.LastDonation
		}
	}

	return stats, nil
}

func (r *donationRepository) GetRequesterStats(ctx context.Context, requesterID primitive.ObjectID) (*models.RequesterStats, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{"requester_id": requesterID})
	if err != nil {
		return nil, fmt.Errorf("failed to count requester donations: %w", err)
	}

	return &models.RequesterStats{
		RequesterID:   requesterID,
		TotalReceived: total,
	}, nil
}

func (r *donationRepository) findDonationsWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.DonationRecord, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count donation records: %w", err)
	}

	opts := params.GetSortOptions()
	if params.Sort == "created_at" || params.Sort == "" {
		opts.SetSort(bson.D{{Key: "completed_at", Value: -1}})
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find donation records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.DonationRecord
	for cursor.Next(ctx) {
		var record models.DonationRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, 0, fmt.Errorf("failed to decode donation record: %w", err)
		}
		records = append(records, &record)
	}

	return records, total, nil
}
