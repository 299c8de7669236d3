package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Donor struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID             primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Name               string             `json:"name" bson:"name"`
	Phone              string             `json:"phone" bson:"phone"`
	Email              string             `json:"email" bson:"email"`
	BloodType          BloodType          `json:"blood_type" bson:"blood_type" validate:"required"`
	CurrentLocation    *Location          `json:"current_location" bson:"current_location"`
	IsAvailable        bool               `json:"is_available" bson:"is_available" default:"false"`
	IsActive           bool               `json:"is_active" bson:"is_active" default:"true"`
	TotalDonations     int64              `json:"total_donations" bson:"total_donations" default:"0"`
	LastDonationAt     *time.Time         `json:"last_donation_at" bson:"last_donation_at"`
	LastLocationUpdate *time.Time         `json:"last_location_update" bson:"last_location_update"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

// DonorProjection is the read-optimized view kept in the geo index, synced
// from the authoritative donor record on every location or availability
// update.
type DonorProjection struct {
	DonorID     primitive.ObjectID `json:"donor_id" bson:"donor_id"`
	BloodType   BloodType          `json:"blood_type" bson:"blood_type"`
	Location    Location           `json:"location" bson:"location"`
	IsAvailable bool               `json:"is_available" bson:"is_available"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// DonorMatch is a single ranked result of a nearby-donor query.
type DonorMatch struct {
	DonorID        primitive.ObjectID `json:"donor_id" bson:"_id"`
	BloodType      BloodType          `json:"blood_type" bson:"blood_type"`
	Location       Location           `json:"location" bson:"current_location"`
	DistanceMeters float64            `json:"distance_meters" bson:"distance_meters"`
}

func (d *Donor) CanReceiveRequests() bool {
	return d.IsActive && d.IsAvailable
}

func (d *Donor) Projection() *DonorProjection {
	p := &DonorProjection{
		DonorID:     d.ID,
		BloodType:   d.BloodType,
		IsAvailable: d.IsAvailable,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.CurrentLocation != nil {
		p.Location = *d.CurrentLocation
	}
	return p
}
