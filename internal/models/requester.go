package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Requester struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID          primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Name            string             `json:"name" bson:"name" validate:"required"`
	Phone           string             `json:"phone" bson:"phone" validate:"required"`
	Email           string             `json:"email" bson:"email"`
	DefaultLocation *Location          `json:"default_location" bson:"default_location"`
	TotalReceived   int64              `json:"total_received" bson:"total_received" default:"0"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// ContactInfo is the requester contact snapshot captured on a blood request
// at creation time, independent of later profile edits.
type ContactInfo struct {
	Name  string `json:"name" bson:"name" validate:"required"`
	Phone string `json:"phone" bson:"phone" validate:"required"`
	Email string `json:"email" bson:"email"`
}

func (r *Requester) Contact() ContactInfo {
	return ContactInfo{
		Name:  r.Name,
		Phone: r.Phone,
		Email: r.Email,
	}
}
