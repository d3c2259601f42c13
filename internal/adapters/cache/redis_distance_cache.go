package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"dispatch-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisDistanceCache caches routed origin->destination distances so
// repeated plans over the same warehouse pairs skip the routing API.
type RedisDistanceCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisDistanceCache(client *redis.Client, ttl time.Duration) *RedisDistanceCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDistanceCache{Client: client, TTL: ttl}
}

// Get returns the cached distance and whether the pair was present.
func (c *RedisDistanceCache) Get(
	ctx context.Context,
	origin, destination domain.Coordinates,
) (float64, bool, error) {
	if c.Client == nil {
		return 0, false, errors.New("distance cache: client is nil")
	}

	val, err := c.Client.Get(ctx, distanceKey(origin, destination)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("distance cache get: %w", err)
	}

	km, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("distance cache get: parse %q: %w", val, err)
	}
	return km, true, nil
}

func (c *RedisDistanceCache) Put(
	ctx context.Context,
	origin, destination domain.Coordinates,
	km float64,
) error {
	if c.Client == nil {
		return errors.New("distance cache: client is nil")
	}
	if km < 0 {
		return fmt.Errorf("distance cache put: negative distance %v", km)
	}

	val := strconv.FormatFloat(km, 'f', -1, 64)
	if err := c.Client.Set(ctx, distanceKey(origin, destination), val, c.TTL).Err(); err != nil {
		return fmt.Errorf("distance cache put: %w", err)
	}
	return nil
}

// distanceKey rounds endpoints to ~11m so nearby lookups share entries.
func distanceKey(origin, destination domain.Coordinates) string {
	return fmt.Sprintf("dispatch:distance:%.4f,%.4f|%.4f,%.4f",
		origin.Lat, origin.Lon, destination.Lat, destination.Lon)
}
