package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DonationRecord is append-only. It is written exactly once, when a blood
// request transitions to completed, and is the source of truth for donor
// and requester statistics.
type DonationRecord struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RequestID   primitive.ObjectID `json:"request_id" bson:"request_id" validate:"required"`
	DonorID     primitive.ObjectID `json:"donor_id" bson:"donor_id" validate:"required"`
	RequesterID primitive.ObjectID `json:"requester_id" bson:"requester_id" validate:"required"`
	BloodType   BloodType          `json:"blood_type" bson:"blood_type"`
	AmountML    int                `json:"amount_ml" bson:"amount_ml"`
	CompletedAt time.Time          `json:"completed_at" bson:"completed_at"`
}

type DonorStats struct {
	DonorID        primitive.ObjectID `json:"donor_id"`
	TotalDonations int64              `json:"total_donations"`
	LastDonationAt *time.Time         `json:"last_donation_at"`
}

type RequesterStats struct {
	RequesterID   primitive.ObjectID `json:"requester_id"`
	TotalReceived int64              `json:"total_received"`
}
