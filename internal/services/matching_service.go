package services

import (
	"context"
	"sort"

	"bloodlink/internal/config"
	"bloodlink/internal/models"
	"bloodlink/internal/repositories/interfaces"
	"bloodlink/internal/utils"
	"bloodlink/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchingService is the donor geo index. The authoritative donor record
// lives in Mongo; Redis carries a read-optimized projection (geo set plus
// per-donor JSON) that queries hit first. Queries may observe a slightly
// stale projection; updates are last-write-wins per donor.
type MatchingService interface {
	UpsertDonorLocation(ctx context.Context, userID primitive.ObjectID, lat, lng float64, address string, bloodType models.BloodType) (*models.DonorProjection, error)
	SetDonorAvailability(ctx context.Context, userID primitive.ObjectID, available bool) (*models.Donor, error)
	RemoveDonor(ctx context.Context, donorID primitive.ObjectID) error
	FindNearbyDonors(ctx context.Context, lat, lng, radiusMeters float64, bloodType *models.BloodType, limit int) ([]*models.DonorMatch, error)
}

type matchingService struct {
	donorRepo interfaces.DonorRepository
	cache     CacheService
	config    *config.EngineConfig
	logger    *logger.Logger
}

func NewMatchingService(donorRepo interfaces.DonorRepository, cacheService CacheService, cfg *config.EngineConfig, log *logger.Logger) MatchingService {
	return &matchingService{
		donorRepo: donorRepo,
		cache:     cacheService,
		config:    cfg,
		logger:    log,
	}
}

func (s *matchingService) UpsertDonorLocation(ctx context.Context, userID primitive.ObjectID, lat, lng float64, address string, bloodType models.BloodType) (*models.DonorProjection, error) {
	if !utils.IsValidCoordinates(lat, lng) {
		return nil, utils.NewEngineError(utils.ErrKindValidation, "coordinates out of range")
	}
	if !models.IsValidBloodType(bloodType) {
		return nil, utils.NewEngineError(utils.ErrKindInvalidBloodType, "unknown blood type")
	}

	donor, err := s.donorRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	location := models.NewLocation(lat, lng, address)
	if err := s.donorRepo.UpdateLocation(ctx, donor.ID, &location, bloodType); err != nil {
		return nil, err
	}

	// Re-read so a concurrent newer write is reflected, not clobbered.
	donor, err = s.donorRepo.GetByID(ctx, donor.ID)
	if err != nil {
		return nil, err
	}

	s.syncProjection(ctx, donor)

	return donor.Projection(), nil
}

func (s *matchingService) SetDonorAvailability(ctx context.Context, userID primitive.ObjectID, available bool) (*models.Donor, error) {
	donor, err := s.donorRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.donorRepo.SetAvailability(ctx, donor.ID, available); err != nil {
		return nil, err
	}

	donor.IsAvailable = available
	s.syncProjection(ctx, donor)

	return donor, nil
}

func (s *matchingService) RemoveDonor(ctx context.Context, donorID primitive.ObjectID) error {
	if err := s.donorRepo.Delete(ctx, donorID); err != nil {
		return err
	}

	member := donorID.Hex()
	if err := s.cache.GeoRemove(ctx, utils.CacheDonorGeoKey, member); err != nil {
		s.logger.WithError(err).Warn("Failed to remove donor from geo index")
	}
	if err := s.cache.Delete(ctx, utils.CacheProjectionPrefix+member); err != nil {
		s.logger.WithError(err).Warn("Failed to drop donor projection")
	}

	return nil
}

func (s *matchingService) FindNearbyDonors(ctx context.Context, lat, lng, radiusMeters float64, bloodType *models.BloodType, limit int) ([]*models.DonorMatch, error) {
	if !utils.IsValidCoordinates(lat, lng) {
		return nil, utils.NewEngineError(utils.ErrKindValidation, "coordinates out of range")
	}
	if radiusMeters <= 0 || radiusMeters > s.config.MaxRadiusMeters {
		return nil, utils.NewEngineError(utils.ErrKindInvalidParameter, "search radius out of range")
	}
	if bloodType != nil && !models.IsValidBloodType(*bloodType) {
		return nil, utils.NewEngineError(utils.ErrKindInvalidBloodType, "unknown blood type")
	}
	if limit <= 0 {
		limit = s.config.DefaultMatchLimit
	}
	if limit > s.config.MaxMatchLimit {
		limit = s.config.MaxMatchLimit
	}

	center := utils.Coordinate{Lat: lat, Lng: lng}

	matches, complete, err := s.findViaProjection(ctx, center, radiusMeters, bloodType)
	if err != nil || !complete || len(matches) == 0 {
		// An evicted projection means the cached result set could be
		// missing a nearer donor, so a partial answer is as useless as a
		// failed one. The store sees every donor.
		if err != nil {
			s.logger.WithError(err).Warn("Geo projection query failed, falling back to store")
		}
		matches, err = s.findViaStore(ctx, center, radiusMeters, bloodType, limit)
		if err != nil {
			return nil, err
		}
	}

	sortMatches(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// findViaProjection answers from the Redis geo set. complete is false when
// any member's projection JSON was evicted; the caller must then discard the
// partial result and requery the store.
func (s *matchingService) findViaProjection(ctx context.Context, center utils.Coordinate, radiusMeters float64, bloodType *models.BloodType) ([]*models.DonorMatch, bool, error) {
	hits, err := s.cache.GeoRadius(ctx, utils.CacheDonorGeoKey, center.Lng, center.Lat, radiusMeters, 0)
	if err != nil {
		return nil, false, err
	}

	complete := true
	var matches []*models.DonorMatch
	for _, hit := range hits {
		var projection models.DonorProjection
		if err := s.cache.Get(ctx, utils.CacheProjectionPrefix+hit.Member, &projection); err != nil {
			complete = false
			continue
		}
		if !projection.IsAvailable {
			continue
		}
		if bloodType != nil && !projection.BloodType.Matches(*bloodType) {
			continue
		}

		distance := utils.Distance(center, utils.Coordinate{
			Lat: projection.Location.Latitude(),
			Lng: projection.Location.Longitude(),
		})
		if distance > radiusMeters {
			continue
		}

		matches = append(matches, &models.DonorMatch{
			DonorID:        projection.DonorID,
			BloodType:      projection.BloodType,
			Location:       projection.Location,
			DistanceMeters: distance,
		})
	}

	return matches, complete, nil
}

func (s *matchingService) findViaStore(ctx context.Context, center utils.Coordinate, radiusMeters float64, bloodType *models.BloodType, limit int) ([]*models.DonorMatch, error) {
	matches, err := s.donorRepo.SearchNearby(ctx, center.Lat, center.Lng, radiusMeters, bloodType, limit)
	if err != nil {
		return nil, err
	}

	// Recompute with the engine's haversine so both query paths rank with
	// identical distances.
	for _, match := range matches {
		match.DistanceMeters = utils.Distance(center, utils.Coordinate{
			Lat: match.Location.Latitude(),
			Lng: match.Location.Longitude(),
		})
	}

	return matches, nil
}

func (s *matchingService) syncProjection(ctx context.Context, donor *models.Donor) {
	member := donor.ID.Hex()
	projection := donor.Projection()

	if err := s.cache.Set(ctx, utils.CacheProjectionPrefix+member, projection, 0); err != nil {
		s.logger.WithError(err).Warn("Failed to cache donor projection")
	}

	if donor.CanReceiveRequests() && donor.CurrentLocation != nil {
		err := s.cache.GeoAdd(ctx, utils.CacheDonorGeoKey, member,
			donor.CurrentLocation.Longitude(), donor.CurrentLocation.Latitude())
		if err != nil {
			s.logger.WithError(err).Warn("Failed to update donor geo index")
		}
	} else {
		if err := s.cache.GeoRemove(ctx, utils.CacheDonorGeoKey, member); err != nil {
			s.logger.WithError(err).Warn("Failed to remove donor from geo index")
		}
	}
}

func sortMatches(matches []*models.DonorMatch) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceMeters != matches[j].DistanceMeters {
			return matches[i].DistanceMeters < matches[j].DistanceMeters
		}
		return matches[i].DonorID.Hex() < matches[j].DonorID.Hex()
	})
}
