package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestStatus string
type UrgencyLevel string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
	RequestStatusExpired   RequestStatus = "expired"

	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// allowedTransitions is the full state machine. Statuses without an entry
// are terminal.
var allowedTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending: {
		RequestStatusAccepted,
		RequestStatusRejected,
		RequestStatusCancelled,
		RequestStatusExpired,
	},
	RequestStatusAccepted: {
		RequestStatusCompleted,
		RequestStatusCancelled,
	},
}

type BloodRequest struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RequesterID      primitive.ObjectID `json:"requester_id" bson:"requester_id" validate:"required"`
	RequesterUserID  primitive.ObjectID `json:"requester_user_id" bson:"requester_user_id"`
	DonorID          primitive.ObjectID `json:"donor_id" bson:"donor_id" validate:"required"`
	DonorUserID      primitive.ObjectID `json:"donor_user_id" bson:"donor_user_id"`
	BloodType        BloodType          `json:"blood_type" bson:"blood_type" validate:"required"`
	Urgency          UrgencyLevel       `json:"urgency" bson:"urgency" validate:"required"`
	Message          string             `json:"message" bson:"message" validate:"max=500"`
	Location         Location           `json:"location" bson:"location" validate:"required"`
	Contact          ContactInfo        `json:"contact" bson:"contact" validate:"required"`
	Status           RequestStatus      `json:"status" bson:"status" default:"pending"`
	DistanceMeters   *float64           `json:"distance_meters" bson:"distance_meters"`
	EstimatedMinutes *int               `json:"estimated_minutes" bson:"estimated_minutes"`
	ResponseMessage  string             `json:"response_message" bson:"response_message"`
	AcceptedAt       *time.Time         `json:"accepted_at" bson:"accepted_at"`
	ResolvedAt       *time.Time         `json:"resolved_at" bson:"resolved_at"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt        time.Time          `json:"expires_at" bson:"expires_at"`
}

func IsValidRequestStatus(s RequestStatus) bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected,
		RequestStatusCompleted, RequestStatusCancelled, RequestStatusExpired:
		return true
	}
	return false
}

func IsValidUrgency(u UrgencyLevel) bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	_, ok := allowedTransitions[s]
	return !ok
}

func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	for _, next := range allowedTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (r *BloodRequest) IsTerminal() bool {
	return r.Status.IsTerminal()
}

func (r *BloodRequest) IsExpired(now time.Time) bool {
	return r.Status == RequestStatusPending && now.After(r.ExpiresAt)
}

// AgeSeconds is derived on read, never stored.
func (r *BloodRequest) AgeSeconds(now time.Time) int64 {
	age := now.Sub(r.CreatedAt)
	if age < 0 {
		return 0
	}
	return int64(age.Seconds())
}
