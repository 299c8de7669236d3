package utils

import "time"

// Application Constants
const (
	AppName    = "BloodLink"
	AppVersion = "1.0.0"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Matching
	DefaultSearchRadiusMeters = 10000.0
	MaxSearchRadiusMeters     = 100000.0
	DefaultMatchLimit         = 10
	MaxMatchLimit             = 50

	// Request lifecycle
	DefaultRequestTTL    = 24 * time.Hour
	DefaultSweepInterval = 60 * time.Second
	SweepBatchSize       = 200
	MaxMessageLength     = 500
	RequestCacheTTL      = 5 * time.Minute

	// Donation
	DefaultDonationAmountML = 450
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Cache Keys
const (
	CacheDonorGeoKey      = "geo:donors"
	CacheRequestPrefix    = "request:"
	CacheProjectionPrefix = "projection:"
)

// Event Types
const (
	EventRequestCreated   = "request_created"
	EventRequestAccepted  = "request_accepted"
	EventRequestRejected  = "request_rejected"
	EventRequestCancelled = "request_cancelled"
	EventRequestCompleted = "request_completed"
	EventRequestExpired   = "request_expired"
)

// Geographic Constants
const (
	EarthRadiusMeters = 6371000.0
)
