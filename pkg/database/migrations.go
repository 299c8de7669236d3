package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(*mongo.Database) error
	Down        func(*mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up() error {
	err := m.createMigrationsCollection()
	if err != nil {
		return err
	}

	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			log.Printf("Running migration %d: %s", migration.Version, migration.Description)

			err := migration.Up(m.db)
			if err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			err = m.updateVersion(migration.Version)
			if err != nil {
				return fmt.Errorf("failed to update migration version: %w", err)
			}

			log.Printf("Migration %d completed successfully", migration.Version)
		}
	}

	return nil
}

func (m *Migrator) createMigrationsCollection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collections, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return err
	}

	for _, name := range collections {
		if name == "migrations" {
			return nil
		}
	}

	return m.db.CreateCollection(ctx, "migrations")
}

func (m *Migrator) getCurrentVersion() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.db.Collection("migrations").ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)

	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create donors collection with geo indexes",
			Up: func(db *mongo.Database) error {
				return createDonorsIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("donors").Drop(context.Background())
			},
		},
		{
			Version:     2,
			Description: "Create requesters collection with indexes",
			Up: func(db *mongo.Database) error {
				return createRequestersIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("requesters").Drop(context.Background())
			},
		},
		{
			Version:     3,
			Description: "Create blood_requests collection with indexes",
			Up: func(db *mongo.Database) error {
				return createBloodRequestsIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("blood_requests").Drop(context.Background())
			},
		},
		{
			Version:     4,
			Description: "Create donations collection with indexes",
			Up: func(db *mongo.Database) error {
				return createDonationsIndexes(db)
			},
			Down: func(db *mongo.Database) error {
				return db.Collection("donations").Drop(context.Background())
			},
		},
	}
}

func createDonorsIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("donors")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "current_location", Value: "2dsphere"}},
		},
		{
			Keys: bson.D{{Key: "blood_type", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "is_available", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createRequestersIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("requesters")

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createBloodRequestsIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("blood_requests")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "donor_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
		{
			// At most one pending request per (requester, donor) pair. The
			// partial filter keeps resolved requests out of the constraint,
			// so a duplicate-key error on insert means a live duplicate.
			Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "donor_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "pending"}),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createDonationsIndexes(db *mongo.Database) error {
	ctx := context.Background()
	collection := db.Collection("donations")

	indexes := []mongo.IndexModel{
		{
			// One donation record per completed request.
			Keys:    bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "donor_id", Value: 1}, {Key: "completed_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "completed_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
