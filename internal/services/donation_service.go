package services

import (
	"context"
	"time"

	"bloodlink/internal/models"
	"bloodlink/internal/repositories/interfaces"
	"bloodlink/internal/utils"
	"bloodlink/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DonationService maintains the append-only donation ledger and the stats
// derived from it.
type DonationService interface {
	RecordCompletion(ctx context.Context, request *models.BloodRequest, completedAt time.Time) (*models.DonationRecord, error)
	GetDonorHistory(ctx context.Context, donorUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.DonationRecord, int64, error)
	GetRequesterHistory(ctx context.Context, requesterUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.DonationRecord, int64, error)
	GetDonorStats(ctx context.Context, donorUserID primitive.ObjectID) (*models.DonorStats, error)
	GetRequesterStats(ctx context.Context, requesterUserID primitive.ObjectID) (*models.RequesterStats, error)
}

type donationService struct {
	donationRepo  interfaces.DonationRepository
	donorRepo     interfaces.DonorRepository
	requesterRepo interfaces.RequesterRepository
	logger        *logger.Logger
}

func NewDonationService(
	donationRepo interfaces.DonationRepository,
	donorRepo interfaces.DonorRepository,
	requesterRepo interfaces.RequesterRepository,
	log *logger.Logger,
) DonationService {
	return &donationService{
		donationRepo:  donationRepo,
		donorRepo:     donorRepo,
		requesterRepo: requesterRepo,
		logger:        log,
	}
}

func (s *donationService) RecordCompletion(ctx context.Context, request *models.BloodRequest, completedAt time.Time) (*models.DonationRecord, error) {
	record := &models.DonationRecord{
		RequestID:   request.ID,
		DonorID:     request.DonorID,
		RequesterID: request.RequesterID,
		BloodType:   request.BloodType,
		AmountML:    utils.DefaultDonationAmountML,
		CompletedAt: completedAt,
	}

	if err := s.donationRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.refreshStats(ctx, request)

	s.logger.LogDonationEvent(record.ID, request.ID, string(record.BloodType), record.AmountML)

	return record, nil
}

func (s *donationService) GetDonorHistory(ctx context.Context, donorUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.DonationRecord, int64, error) {
	donor, err := s.donorRepo.GetByUserID(ctx, donorUserID)
	if err != nil {
		return nil, 0, err
	}
	return s.donationRepo.GetByDonor(ctx, donor.ID, params)
}

func (s *donationService) GetRequesterHistory(ctx context.Context, requesterUserID primitive.ObjectID, params *utils.PaginationParams) ([]*models.DonationRecord, int64, error) {
	requester, err := s.requesterRepo.GetByUserID(ctx, requesterUserID)
	if err != nil {
		return nil, 0, err
	}
	return s.donationRepo.GetByRequester(ctx, requester.ID, params)
}

func (s *donationService) GetDonorStats(ctx context.Context, donorUserID primitive.ObjectID) (*models.DonorStats, error) {
	donor, err := s.donorRepo.GetByUserID(ctx, donorUserID)
	if err != nil {
		return nil, err
	}
	return s.donationRepo.GetDonorStats(ctx, donor.ID)
}

func (s *donationService) GetRequesterStats(ctx context.Context, requesterUserID primitive.ObjectID) (*models.RequesterStats, error) {
	requester, err := s.requesterRepo.GetByUserID(ctx, requesterUserID)
	if err != nil {
		return nil, err
	}
	return s.donationRepo.GetRequesterStats(ctx, requester.ID)
}

// refreshStats recomputes the denormalized counters on the donor and
// requester profiles from the ledger. Failures here are logged, not
// surfaced: the ledger is authoritative and the counters converge on the
// next completion.
func (s *donationService) refreshStats(ctx context.Context, request *models.BloodRequest) {
	donorStats, err := s.donationRepo.GetDonorStats(ctx, request.DonorID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to compute donor stats")
	} else if err := s.donorRepo.UpdateStats(ctx, request.DonorID, donorStats.TotalDonations, donorStats.LastDonationAt); err != nil {
		s.logger.WithError(err).Warn("Failed to update donor stats")
	}

	requesterStats, err := s.donationRepo.GetRequesterStats(ctx, request.RequesterID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to compute requester stats")
	} else if err := s.requesterRepo.UpdateStats(ctx, request.RequesterID, requesterStats.TotalReceived); err != nil {
		s.logger.WithError(err).Warn("Failed to update requester stats")
	}
}
