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

type donorRepository struct {
	collection *mongo.Collection
}

func NewDonorRepository(db *mongo.Database) interfaces.DonorRepository {
	return &donorRepository{
		collection: db.Collection("donors"),
	}
}

func (r *donorRepository) Create(ctx context.Context, donor *models.Donor) error {
	donor.ID = primitive.NewObjectID()
	donor.CreatedAt = time.Now()
	donor.UpdatedAt = donor.CreatedAt

	_, err := r.collection.InsertOne(ctx, donor)
	if err != nil {
		return fmt.Errorf("failed to create donor: %w", err)
	}

	return nil
}

func (r *donorRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Donor, error) {
	var donor models.Donor
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&donor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewEngineError(utils.ErrKindNotFound, "donor not found")
		}
		return nil, fmt.Errorf("failed to get donor: %w", err)
	}

	return &donor, nil
}

func (r *donorRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Donor, error) {
	var donor models.Donor
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&donor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewEngineError(utils.ErrKindNotFound, "donor not found")
		}
		return nil, fmt.Errorf("failed to get donor by user: %w", err)
	}

	return &donor, nil
}

func (r *donorRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location, bloodType models.BloodType) error {
	now := time.Now()

	// Last-write-wins by the location timestamp: a stale concurrent update
	// matches nothing and is dropped.
	filter := bson.M{
		"_id": id,
		"$or": []bson.M{
			{"last_location_update": bson.M{"$lt": location.Timestamp}},
			{"last_location_update": nil},
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"current_location":     location,
		"blood_type":           bloodType,
		"last_location_update": location.Timestamp,
		"updated_at":           now,
	}})
	if err != nil {
		return fmt.Errorf("failed to update donor location: %w", err)
	}

	return nil
}

func (r *donorRepository) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"is_available": available,
			"updated_at":   time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set donor availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewEngineError(utils.ErrKindNotFound, "donor not found")
	}

	return nil
}

func (r *donorRepository) SearchNearby(ctx context.Context, lat, lng, radiusMeters float64, bloodType *models.BloodType, limit int) ([]*models.DonorMatch, error) {
	query := bson.M{
		"is_available": true,
		"is_active":    true,
	}
	if bloodType != nil {
		query["blood_type"] = *bloodType
	}

	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near": bson.M{
				"type":        "Point",
				"coordinates": []float64{lng, lat},
			},
			"key":           "current_location",
			"distanceField": "distance_meters",
			"maxDistance":   radiusMeters,
			"query":         query,
			"spherical":     true,
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "distance_meters", Value: 1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to search nearby donors: %w", err)
	}
	defer cursor.Close(ctx)

	var matches []*models.DonorMatch
	for cursor.Next(ctx) {
		var match models.DonorMatch
		if err := cursor.Decode(&match); err != nil {
			return nil, fmt.Errorf("failed to decode donor match: %w", err)
		}
		matches = append(matches, &match)
	}

	return matches, nil
}

func (r *donorRepository) UpdateStats(ctx context.Context, id primitive.ObjectID, totalDonations int64, lastDonationAt *time.Time) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"total_donations":  totalDonations,
			"last_donation_at": lastDonationAt,
			"updated_at":       time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update donor stats: %w", err)
	}

	return nil
}

func (r *donorRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete donor: %w", err)
	}

	return nil
}
