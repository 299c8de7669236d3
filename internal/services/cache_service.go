package services

import (
	"context"
	"time"

	"bloodlink/pkg/cache"

	"github.com/redis/go-redis/v9"
)

// CacheService is the subset of Redis the engine uses: JSON value caching
// and the geo index holding the donor projection.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	GeoAdd(ctx context.Context, key, member string, lng, lat float64) error
	GeoRadius(ctx context.Context, key string, lng, lat, radiusMeters float64, limit int) ([]GeoLocation, error)
	GeoRemove(ctx context.Context, key string, members ...string) error

	Ping(ctx context.Context) error
}

// GeoLocation is a geo query hit, decoupled from the redis client types.
type GeoLocation struct {
	Member         string
	Longitude      float64
	Latitude       float64
	DistanceMeters float64
}

type redisCacheService struct {
	cache *cache.RedisCache
}

func NewCacheService(redisCache *cache.RedisCache) CacheService {
	return &redisCacheService{cache: redisCache}
}

func (s *redisCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return s.cache.Get(ctx, key, dest)
}

func (s *redisCacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.cache.Set(ctx, key, value, expiration)
}

func (s *redisCacheService) Delete(ctx context.Context, keys ...string) error {
	return s.cache.Delete(ctx, keys...)
}

func (s *redisCacheService) GeoAdd(ctx context.Context, key, member string, lng, lat float64) error {
	return s.cache.GeoAdd(ctx, key, &redis.GeoLocation{
		Name:      member,
		Longitude: lng,
		Latitude:  lat,
	})
}

func (s *redisCacheService) GeoRadius(ctx context.Context, key string, lng, lat, radiusMeters float64, limit int) ([]GeoLocation, error) {
	query := &redis.GeoRadiusQuery{
		Radius:    radiusMeters,
		Unit:      "m",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}
	if limit > 0 {
		query.Count = limit
	}

	hits, err := s.cache.GeoRadius(ctx, key, lng, lat, query)
	if err != nil {
		return nil, err
	}

	locations := make([]GeoLocation, 0, len(hits))
	for _, hit := range hits {
		locations = append(locations, GeoLocation{
			Member:         hit.Name,
			Longitude:      hit.Longitude,
			Latitude:       hit.Latitude,
			DistanceMeters: hit.Dist,
		})
	}

	return locations, nil
}

func (s *redisCacheService) GeoRemove(ctx context.Context, key string, members ...string) error {
	return s.cache.GeoRemove(ctx, key, members...)
}

func (s *redisCacheService) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}
