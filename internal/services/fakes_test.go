package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"bloodlink/internal/models"
	"bloodlink/internal/utils"
	"bloodlink/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestLogger() *logger.Logger {
	log, _ := logger.NewLogger(&logger.Config{
		Level:  logger.ErrorLevel,
		Format: "text",
		Output: "stderr",
	})
	return log
}

// fakeDonorRepo is an in-memory DonorRepository.
type fakeDonorRepo struct {
	mu     sync.Mutex
	donors map[primitive.ObjectID]*models.Donor
}

func newFakeDonorRepo() *fakeDonorRepo {
	return &fakeDonorRepo{donors: make(map[primitive.ObjectID]*models.Donor)}
}

func (r *fakeDonorRepo) Create(ctx context.Context, donor *models.Donor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if donor.ID.IsZero() {
		donor.ID = primitive.NewObjectID()
	}
	copied := *donor
	r.donors[donor.ID] = &copied
	return nil
}

func (r *fakeDonorRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Donor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	donor, ok := r.donors[id]
	if !ok {
		return nil, utils.NewEngineError(utils.ErrKindNotFound, "donor not found")
	}
	copied := *donor
	return &copied, nil
}

func (r *fakeDonorRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Donor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, donor := range r.donors {
		if donor.UserID == userID {
			copied := *donor
			return &copied, nil
		}
	}
	return nil, utils.NewEngineError(utils.ErrKindNotFound, "donor not found")
}

func (r *fakeDonorRepo) UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location, bloodType models.BloodType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	donor, ok := r.donors[id]
	if !ok {
		return utils.NewEngineError(utils.ErrKindNotFound, "donor not found")
	}
	// Last write wins: older updates are dropped silently.
	if donor.LastLocationUpdate != nil && !donor.LastLocationUpdate.Before(location.Timestamp) {
		return nil
	}
	donor.CurrentLocation = location
	donor.BloodType = bloodType
	donor.LastLocationUpdate = &location.Timestamp
	return nil
}

func (r *fakeDonorRepo) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	donor, ok := r.donors[id]
	if !ok {
		return utils.NewEngineError(utils.ErrKindNotFound, "donor not found")
	}
	donor.IsAvailable = available
	return nil
}

func (r *fakeDonorRepo) SearchNearby(ctx context.Context, lat, lng, radiusMeters float64, bloodType *models.BloodType, limit int) ([]*models.DonorMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	center := utils.Coordinate{Lat: lat, Lng: lng}
	var matches []*models.DonorMatch
	for _, donor := range r.donors {
		if !donor.CanReceiveRequests() || donor.CurrentLocation == nil {
			continue
		}
		if bloodType != nil && !donor.BloodType.Matches(*bloodType) {
			continue
		}
		distance := utils.Distance(center, utils.Coordinate{
			Lat: donor.CurrentLocation.Latitude(),
			Lng: donor.CurrentLocation.Longitude(),
		})
		if distance > radiusMeters {
			continue
		}
		matches = append(matches, &models.DonorMatch{
			DonorID:        donor.ID,
			BloodType:      donor.BloodType,
			Location:       *donor.CurrentLocation,
			DistanceMeters: distance,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceMeters != matches[j].DistanceMeters {
			return matches[i].DistanceMeters < matches[j].DistanceMeters
		}
		return matches[i].DonorID.Hex() < matches[j].DonorID.Hex()
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *fakeDonorRepo) UpdateStats(ctx context.Context, id primitive.ObjectID, totalDonations int64, lastDonationAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	donor, ok := r.donors[id]
	if !ok {
		return utils.NewEngineError(utils.ErrKindNotFound, "donor not found")
	}
	donor.TotalDonations = totalDonations
	donor.LastDonationAt = lastDonationAt
	return nil
}

func (r *fakeDonorRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.donors, id)
	return nil
}

// fakeRequesterRepo is an in-memory RequesterRepository.
type fakeRequesterRepo struct {
	mu         sync.Mutex
	requesters map[primitive.ObjectID]*models.Requester
}

func newFakeRequesterRepo() *fakeRequesterRepo {
	return &fakeRequesterRepo{requesters: make(map[primitive.ObjectID]*models.Requester)}
}

func (r *fakeRequesterRepo) Create(ctx context.Context, requester *models.Requester) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requester.ID.IsZero() {
		requester.ID = primitive.NewObjectID()
	}
	copied := *requester
	r.requesters[requester.ID] = &copied
	return nil
}

func (r *fakeRequesterRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Requester, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	requester, ok := r.requesters[id]
	if !ok {
		return nil, utils.NewEngineError(utils.ErrKindNotFound, "requester not found")
	}
	copied := *requester
	return &copied, nil
}

func (r *fakeRequesterRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Requester, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, requester := range r.requesters {
		if requester.UserID == userID {
			copied := *requester
			return &copied, nil
		}
	}
	return nil, utils.NewEngineError(utils.ErrKindNotFound, "requester not found")
}

func (r *fakeRequesterRepo) UpdateStats(ctx context.Context, id primitive.ObjectID, totalReceived int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	requester, ok := r.requesters[id]
	if !ok {
		return utils.NewEngineError(utils.ErrKindNotFound, "requester not found")
	}
	requester.TotalReceived = totalReceived
	return nil
}

// fakeRequestRepo is an in-memory RequestRepository with the same uniqueness
// and compare-and-swap semantics as the Mongo implementation.
type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[primitive.ObjectID]*models.BloodRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[primitive.ObjectID]*models.BloodRequest)}
}

func (r *fakeRequestRepo) Create(ctx context.Context, request *models.BloodRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.requests {
		if existing.RequesterID == request.RequesterID &&
			existing.DonorID == request.DonorID &&
			existing.Status == models.RequestStatusPending {
			return utils.NewEngineError(utils.ErrKindDuplicatePending, "a pending request for this donor already exists")
		}
	}
	request.ID = primitive.NewObjectID()
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BloodRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, utils.NewEngineError(utils.ErrKindNotFound, "blood request not found")
	}
	copied := *request
	return &copied, nil
}

func (r *fakeRequestRepo) UpdateStatusCAS(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok || request.Status != from {
		return utils.NewEngineError(utils.ErrKindStateConflict, "request status changed concurrently")
	}
	request.Status = to
	for key, value := range updates {
		switch key {
		case "accepted_at":
			t := value.(time.Time)
			request.AcceptedAt = &t
		case "resolved_at":
			t := value.(time.Time)
			request.ResolvedAt = &t
		case "response_message":
			request.ResponseMessage = value.(string)
		}
	}
	return nil
}

func (r *fakeRequestRepo) GetByDonor(ctx context.Context, donorID primitive.ObjectID, status *models.RequestStatus, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.BloodRequest
	for _, request := range r.requests {
		if request.DonorID != donorID {
			continue
		}
		if status != nil && request.Status != *status {
			continue
		}
		copied := *request
		result = append(result, &copied)
	}
	return result, int64(len(result)), nil
}

func (r *fakeRequestRepo) GetByRequester(ctx context.Context, requesterID primitive.ObjectID, status *models.RequestStatus, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.BloodRequest
	for _, request := range r.requests {
		if request.RequesterID != requesterID {
			continue
		}
		if status != nil && request.Status != *status {
			continue
		}
		copied := *request
		result = append(result, &copied)
	}
	return result, int64(len(result)), nil
}

func (r *fakeRequestRepo) SearchNearbyPending(ctx context.Context, lat, lng, radiusMeters float64, bloodType *models.BloodType, urgency *models.UrgencyLevel, params *utils.PaginationParams) ([]*models.BloodRequest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	center := utils.Coordinate{Lat: lat, Lng: lng}
	var result []*models.BloodRequest
	for _, request := range r.requests {
		if request.Status != models.RequestStatusPending {
			continue
		}
		if bloodType != nil && request.BloodType != *bloodType {
			continue
		}
		if urgency != nil && request.Urgency != *urgency {
			continue
		}
		distance := utils.Distance(center, utils.Coordinate{
			Lat: request.Location.Latitude(),
			Lng: request.Location.Longitude(),
		})
		if distance > radiusMeters {
			continue
		}
		copied := *request
		result = append(result, &copied)
	}
	return result, int64(len(result)), nil
}

func (r *fakeRequestRepo) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*models.BloodRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.BloodRequest
	for _, request := range r.requests {
		if request.Status != models.RequestStatusPending || !request.ExpiresAt.Before(now) {
			continue
		}
		copied := *request
		result = append(result, &copied)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// fakeDonationRepo is an in-memory DonationRepository, idempotent per
// request id like its Mongo counterpart.
type fakeDonationRepo struct {
	mu      sync.Mutex
	records []*models.DonationRecord
}

func newFakeDonationRepo() *fakeDonationRepo {
	return &fakeDonationRepo{}
}

func (r *fakeDonationRepo) Create(ctx context.Context, record *models.DonationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.RequestID == record.RequestID {
			return nil
		}
	}
	record.ID = primitive.NewObjectID()
	copied := *record
	r.records = append(r.records, &copied)
	return nil
}

func (r *fakeDonationRepo) GetByRequestID(ctx context.Context, requestID primitive.ObjectID) (*models.DonationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.RequestID == requestID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, utils.NewEngineError(utils.ErrKindNotFound, "donation record not found")
}

func (r *fakeDonationRepo) GetByDonor(ctx context.Context, donorID primitive.ObjectID, params *utils.PaginationParams) ([]*models.DonationRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.DonationRecord
	for _, record := range r.records {
		if record.DonorID == donorID {
			copied := *record
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeDonationRepo) GetByRequester(ctx context.Context, requesterID primitive.ObjectID, params *utils.PaginationParams) ([]*models.DonationRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.DonationRecord
	for _, record := range r.records {
		if record.RequesterID == requesterID {
			copied := *record
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeDonationRepo) GetDonorStats(ctx context.Context, donorID primitive.ObjectID) (*models.DonorStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &models.DonorStats{DonorID: donorID}
	for _, record := range r.records {
		if record.DonorID != donorID {
			continue
		}
		stats.TotalDonations++
		if stats.LastDonationAt == nil || record.CompletedAt.After(*stats.LastDonationAt) {
			completed := record.CompletedAt
			stats.LastDonationAt = &completed
		}
	}
	return stats, nil
}

func (r *fakeDonationRepo) GetRequesterStats(ctx context.Context, requesterID primitive.ObjectID) (*models.RequesterStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &models.RequesterStats{RequesterID: requesterID}
	for _, record := range r.records {
		if record.RequesterID == requesterID {
			stats.TotalReceived++
		}
	}
	return stats, nil
}

// fakeCache is an in-memory CacheService with a working geo index.
type fakeCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	geo     map[string]map[string]utils.Coordinate
	failGeo bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		values: make(map[string][]byte),
		geo:    make(map[string]map[string]utils.Coordinate),
	}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.values[key]
	if !ok {
		return utils.NewEngineError(utils.ErrKindNotFound, "cache miss")
	}
	return json.Unmarshal(data, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = data
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func (c *fakeCache) GeoAdd(ctx context.Context, key, member string, lng, lat float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.geo[key] == nil {
		c.geo[key] = make(map[string]utils.Coordinate)
	}
	c.geo[key][member] = utils.Coordinate{Lat: lat, Lng: lng}
	return nil
}

func (c *fakeCache) GeoRadius(ctx context.Context, key string, lng, lat, radiusMeters float64, limit int) ([]GeoLocation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGeo {
		return nil, utils.InternalError("geo query failed", nil)
	}
	center := utils.Coordinate{Lat: lat, Lng: lng}
	var hits []GeoLocation
	for member, coord := range c.geo[key] {
		distance := utils.Distance(center, coord)
		if distance > radiusMeters {
			continue
		}
		hits = append(hits, GeoLocation{
			Member:         member,
			Longitude:      coord.Lng,
			Latitude:       coord.Lat,
			DistanceMeters: distance,
		})
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (c *fakeCache) GeoRemove(ctx context.Context, key string, members ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, member := range members {
		delete(c.geo[key], member)
	}
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error {
	return nil
}
