// README: Provider availability registry backed by Redis GEO.
package availability

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"fixly/internal/types"
)

const (
	providerGeoKey = "availability:providers"
	// Providers who never check out fall off after this TTL refresh horizon.
	memberTTL = 12 * time.Hour
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) Add(ctx context.Context, id types.ID, p types.Point) error {
	pipe := s.redis.Pipeline()
	pipe.GeoAdd(ctx, providerGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	})
	pipe.Expire(ctx, providerGeoKey, memberTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Remove(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, providerGeoKey, string(id)).Err()
}

// Nearby returns up to limit available providers. With a position it searches
// nearest-first within radiusKm; without one it returns any available members.
func (s *Store) Nearby(ctx context.Context, p *types.Point, radiusKm float64, limit int) ([]types.ID, error) {
	if p == nil {
		members, err := s.redis.ZRange(ctx, providerGeoKey, 0, int64(limit)-1).Result()
		if err != nil {
			return nil, err
		}
		return toIDs(members), nil
	}
	results, err := s.redis.GeoSearch(ctx, providerGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
		Count:      limit,
	}).Result()
	if err != nil {
		return nil, err
	}
	return toIDs(results), nil
}

func toIDs(members []string) []types.ID {
	ids := make([]types.ID, len(members))
	for i, m := range members {
		ids[i] = types.ID(m)
	}
	return ids
}
