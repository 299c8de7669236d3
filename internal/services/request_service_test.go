package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"bloodlink/internal/models"
	"bloodlink/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type requestFixture struct {
	service      RequestService
	requestRepo  *fakeRequestRepo
	donorRepo    *fakeDonorRepo
	donationRepo *fakeDonationRepo
	cache        *fakeCache
	donor        *models.Donor
	requester    *models.Requester
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()

	donorRepo := newFakeDonorRepo()
	requesterRepo := newFakeRequesterRepo()
	requestRepo := newFakeRequestRepo()
	donationRepo := newFakeDonationRepo()
	cache := newFakeCache()
	log := newTestLogger()

	donationService := NewDonationService(donationRepo, donorRepo, requesterRepo, log)
	service := NewRequestService(requestRepo, donorRepo, requesterRepo, donationService, cache, testEngineConfig(), log)

	location := models.NewLocation(23.8110, 90.4130, "Banani")
	donor := &models.Donor{
		UserID:          primitive.NewObjectID(),
		Name:            "Donor",
		Phone:           "+8801700000001",
		BloodType:       models.BloodTypeOPositive,
		CurrentLocation: &location,
		IsAvailable:     true,
		IsActive:        true,
	}
	require.NoError(t, donorRepo.Create(context.Background(), donor))

	requester := &models.Requester{
		UserID: primitive.NewObjectID(),
		Name:   "Requester",
		Phone:  "+8801700000002",
		Email:  "requester@example.com",
	}
	require.NoError(t, requesterRepo.Create(context.Background(), requester))

	return &requestFixture{
		service:      service,
		requestRepo:  requestRepo,
		donorRepo:    donorRepo,
		donationRepo: donationRepo,
		cache:        cache,
		donor:        donor,
		requester:    requester,
	}
}

func (f *requestFixture) createInput() *CreateRequestInput {
	return &CreateRequestInput{
		RequesterUserID: f.requester.UserID,
		DonorID:         f.donor.ID,
		BloodType:       models.BloodTypeOPositive,
		Urgency:         models.UrgencyHigh,
		Message:         "Need blood urgently",
		Lat:             23.8103,
		Lng:             90.4125,
		Address:         "Dhaka Medical",
	}
}

func TestCreateRequest(t *testing.T) {
	f := newRequestFixture(t)

	before := time.Now()
	request, err := f.service.Create(context.Background(), f.createInput())
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusPending, request.Status)
	assert.False(t, request.ID.IsZero())
	assert.Equal(t, f.requester.ID, request.RequesterID)
	assert.Equal(t, f.donor.ID, request.DonorID)
	assert.Equal(t, f.donor.UserID, request.DonorUserID)

	// Contact snapshot from the requester profile.
	assert.Equal(t, "Requester", request.Contact.Name)
	assert.Equal(t, "+8801700000002", request.Contact.Phone)

	// Expiry is creation time plus the configured TTL.
	assert.WithinDuration(t, before.Add(utils.DefaultRequestTTL), request.ExpiresAt, 2*time.Second)

	// Distance and ETA derived from the donor's known location.
	require.NotNil(t, request.DistanceMeters)
	require.NotNil(t, request.EstimatedMinutes)
	assert.InDelta(t, 150, *request.DistanceMeters, 100)
	assert.Greater(t, *request.EstimatedMinutes, 0)
}

func TestCreateRequestValidation(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	input := f.createInput()
	input.BloodType = models.BloodType("Z-")
	_, err := f.service.Create(ctx, input)
	assert.True(t, utils.IsKind(err, utils.ErrKindInvalidBloodType))

	input = f.createInput()
	input.Urgency = models.UrgencyLevel("panic")
	_, err = f.service.Create(ctx, input)
	assert.True(t, utils.IsKind(err, utils.ErrKindValidation))

	input = f.createInput()
	input.Message = strings.Repeat("x", utils.MaxMessageLength+1)
	_, err = f.service.Create(ctx, input)
	assert.True(t, utils.IsKind(err, utils.ErrKindValidation))

	input = f.createInput()
	input.Lat = 95
	_, err = f.service.Create(ctx, input)
	assert.True(t, utils.IsKind(err, utils.ErrKindValidation))

	input = f.createInput()
	input.DonorID = primitive.NewObjectID()
	_, err = f.service.Create(ctx, input)
	assert.True(t, utils.IsKind(err, utils.ErrKindNotFound))
}

func TestCreateRequestDonorUnavailable(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.donorRepo.SetAvailability(ctx, f.donor.ID, false))

	_, err := f.service.Create(ctx, f.createInput())
	assert.True(t, utils.IsKind(err, utils.ErrKindDonorUnavailable))
}

func TestCreateRequestDuplicatePending(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	_, err = f.service.Create(ctx, f.createInput())
	assert.True(t, utils.IsKind(err, utils.ErrKindDuplicatePending))
}

func TestCreateRequestAllowedAfterResolution(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusRejected, "sorry")
	require.NoError(t, err)

	// The uniqueness constraint only covers pending requests.
	_, err = f.service.Create(ctx, f.createInput())
	assert.NoError(t, err)
}

func TestTransitionAccept(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	updated, err := f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusAccepted, "on my way")
	require.NoError(t, err)

	assert.Equal(t, models.RequestStatusAccepted, updated.Status)
	assert.NotNil(t, updated.AcceptedAt)
	assert.Nil(t, updated.ResolvedAt)
	assert.Equal(t, "on my way", updated.ResponseMessage)
}

func TestTransitionAuthorization(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	// Requester cannot accept, reject, or complete.
	_, err = f.service.Transition(ctx, request.ID, f.requester.UserID, models.RequestStatusAccepted, "")
	assert.True(t, utils.IsKind(err, utils.ErrKindForbidden))
	_, err = f.service.Transition(ctx, request.ID, f.requester.UserID, models.RequestStatusRejected, "")
	assert.True(t, utils.IsKind(err, utils.ErrKindForbidden))

	// Donor cannot cancel.
	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusCancelled, "")
	assert.True(t, utils.IsKind(err, utils.ErrKindForbidden))

	// A stranger can do nothing.
	_, err = f.service.Transition(ctx, request.ID, primitive.NewObjectID(), models.RequestStatusAccepted, "")
	assert.True(t, utils.IsKind(err, utils.ErrKindForbidden))
}

func TestTransitionInvalidTargets(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	// Unknown status string.
	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatus("done"), "")
	assert.True(t, utils.IsKind(err, utils.ErrKindInvalidStatus))

	// pending -> completed skips accepted.
	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusCompleted, "")
	assert.True(t, utils.IsKind(err, utils.ErrKindInvalidTransition))

	// expired is reaper-only, never user-settable.
	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusExpired, "")
	assert.True(t, utils.IsKind(err, utils.ErrKindInvalidTransition))

	// pending is never a target.
	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusPending, "")
	assert.True(t, utils.IsKind(err, utils.ErrKindInvalidTransition))
}

func TestTransitionAlreadyTerminal(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusRejected, "")
	require.NoError(t, err)

	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusAccepted, "")
	assert.True(t, utils.IsKind(err, utils.ErrKindAlreadyTerminal))

	_, err = f.service.Transition(ctx, request.ID, f.requester.UserID, models.RequestStatusCancelled, "")
	assert.True(t, utils.IsKind(err, utils.ErrKindAlreadyTerminal))
}

func TestTransitionConflictResolvesToAlreadyTerminal(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	// Simulate a concurrent cancel landing between the service's read and
	// its CAS write.
	err = f.requestRepo.UpdateStatusCAS(ctx, request.ID, models.RequestStatusPending, models.RequestStatusCancelled, map[string]interface{}{
		"resolved_at": time.Now(),
	})
	require.NoError(t, err)

	stale, err := f.requestRepo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCancelled, stale.Status)

	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusAccepted, "")
	assert.True(t, utils.IsKind(err, utils.ErrKindAlreadyTerminal))
}

func TestCompleteRecordsDonation(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusAccepted, "")
	require.NoError(t, err)

	updated, err := f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, updated.Status)
	assert.NotNil(t, updated.ResolvedAt)

	record, err := f.donationRepo.GetByRequestID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, f.donor.ID, record.DonorID)
	assert.Equal(t, f.requester.ID, record.RequesterID)
	assert.Equal(t, models.BloodTypeOPositive, record.BloodType)
	assert.Equal(t, utils.DefaultDonationAmountML, record.AmountML)

	// Derived counters follow the ledger.
	donor, err := f.donorRepo.GetByID(ctx, f.donor.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), donor.TotalDonations)
	assert.NotNil(t, donor.LastDonationAt)
}

func TestAcceptedCancelledByRequester(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusAccepted, "")
	require.NoError(t, err)

	updated, err := f.service.Transition(ctx, request.ID, f.requester.UserID, models.RequestStatusCancelled, "found another donor")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCancelled, updated.Status)
	assert.NotNil(t, updated.ResolvedAt)

	// No donation for a cancelled request.
	_, err = f.donationRepo.GetByRequestID(ctx, request.ID)
	assert.True(t, utils.IsKind(err, utils.ErrKindNotFound))
}

func TestGetByIDPartyOnly(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	_, err = f.service.GetByID(ctx, request.ID, f.donor.UserID)
	assert.NoError(t, err)

	_, err = f.service.GetByID(ctx, request.ID, f.requester.UserID)
	assert.NoError(t, err)

	_, err = f.service.GetByID(ctx, request.ID, primitive.NewObjectID())
	assert.True(t, utils.IsKind(err, utils.ErrKindForbidden))

	_, err = f.service.GetByID(ctx, primitive.NewObjectID(), f.donor.UserID)
	assert.True(t, utils.IsKind(err, utils.ErrKindNotFound))
}

func TestListForParties(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	params := utils.NewPaginationParams(1, 20)

	incoming, total, err := f.service.ListForDonor(ctx, f.donor.UserID, nil, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, incoming, 1)
	assert.Equal(t, request.ID, incoming[0].ID)

	pending := models.RequestStatusPending
	outgoing, total, err := f.service.ListForRequester(ctx, f.requester.UserID, &pending, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, outgoing, 1)

	completed := models.RequestStatusCompleted
	outgoing, total, err = f.service.ListForRequester(ctx, f.requester.UserID, &completed, params)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, outgoing)
}

func TestConcurrentCreateOnlyOneSucceeds(t *testing.T) {
	f := newRequestFixture(t)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Create(context.Background(), f.createInput())
		}(i)
	}
	wg.Wait()

	succeeded, duplicates := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case utils.IsKind(err, utils.ErrKindDuplicatePending):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, duplicates)

	pending := models.RequestStatusPending
	_, total, err := f.service.ListForRequester(context.Background(), f.requester.UserID, &pending, utils.NewPaginationParams(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestConcurrentCompleteVsCancelOneWins(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)
	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusAccepted, "")
	require.NoError(t, err)

	var completeErr, cancelErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, completeErr = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusCompleted, "")
	}()
	go func() {
		defer wg.Done()
		_, cancelErr = f.service.Transition(ctx, request.ID, f.requester.UserID, models.RequestStatusCancelled, "")
	}()
	wg.Wait()

	winners := 0
	for _, err := range []error{completeErr, cancelErr} {
		if err == nil {
			winners++
			continue
		}
		kind := utils.KindOf(err)
		assert.Contains(t, []utils.ErrorKind{utils.ErrKindStateConflict, utils.ErrKindAlreadyTerminal}, kind)
	}
	require.Equal(t, 1, winners)

	final, err := f.requestRepo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	switch final.Status {
	case models.RequestStatusCompleted:
		require.NoError(t, completeErr)
		_, err = f.donationRepo.GetByRequestID(ctx, request.ID)
		assert.NoError(t, err)
	case models.RequestStatusCancelled:
		require.NoError(t, cancelErr)
		_, err = f.donationRepo.GetByRequestID(ctx, request.ID)
		assert.True(t, utils.IsKind(err, utils.ErrKindNotFound))
	default:
		t.Fatalf("request finished in unexpected status %s", final.Status)
	}
}

func TestGetByIDServedFromCache(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	// Drop the stored document; only the cached copy remains.
	f.requestRepo.mu.Lock()
	delete(f.requestRepo.requests, request.ID)
	f.requestRepo.mu.Unlock()

	got, err := f.service.GetByID(ctx, request.ID, f.requester.UserID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, got.ID)

	// The cached copy enforces the same party check.
	_, err = f.service.GetByID(ctx, request.ID, primitive.NewObjectID())
	assert.True(t, utils.IsKind(err, utils.ErrKindForbidden))
}

func TestTransitionRefreshesCachedRequest(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	_, err = f.service.Transition(ctx, request.ID, f.donor.UserID, models.RequestStatusAccepted, "")
	require.NoError(t, err)

	var cached models.BloodRequest
	require.NoError(t, f.cache.Get(ctx, utils.CacheRequestPrefix+request.ID.Hex(), &cached))
	assert.Equal(t, models.RequestStatusAccepted, cached.Status)

	got, err := f.service.GetByID(ctx, request.ID, f.donor.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, got.Status)
}

func TestFindNearbyRequests(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.createInput())
	require.NoError(t, err)

	params := utils.NewPaginationParams(1, 20)

	requests, _, err := f.service.FindNearbyRequests(ctx, 23.8103, 90.4125, 10000, nil, nil, params)
	require.NoError(t, err)
	assert.Len(t, requests, 1)

	// Urgency filter excludes non-matching requests.
	low := models.UrgencyLow
	requests, _, err = f.service.FindNearbyRequests(ctx, 23.8103, 90.4125, 10000, nil, &low, params)
	require.NoError(t, err)
	assert.Empty(t, requests)

	_, _, err = f.service.FindNearbyRequests(ctx, 23.8103, 90.4125, 0, nil, nil, params)
	assert.True(t, utils.IsKind(err, utils.ErrKindInvalidParameter))
}
