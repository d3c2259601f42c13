package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisGeocodeCache caches address -> coordinates resolutions. Receiver
// addresses repeat heavily for regular customers; geocoding quota does
// not need to be spent on them twice.
type RedisGeocodeCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisGeocodeCache(client *redis.Client, ttl time.Duration) *RedisGeocodeCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisGeocodeCache{Client: client, TTL: ttl}
}

func (c *RedisGeocodeCache) Get(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	if c.Client == nil {
		return domain.Coordinates{}, false, errors.New("geocode cache: client is nil")
	}

	val, err := c.Client.Get(ctx, geocodeKey(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Coordinates{}, false, nil
	}
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode cache get: %w", err)
	}

	var coords domain.Coordinates
	if err := json.Unmarshal(val, &coords); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode cache get: decode: %w", err)
	}
	return coords, true, nil
}

func (c *RedisGeocodeCache) Put(ctx context.Context, address string, coords domain.Coordinates) error {
	if c.Client == nil {
		return errors.New("geocode cache: client is nil")
	}

	val, err := json.Marshal(coords)
	if err != nil {
		return fmt.Errorf("geocode cache put: encode: %w", err)
	}
	if err := c.Client.Set(ctx, geocodeKey(address), val, c.TTL).Err(); err != nil {
		return fmt.Errorf("geocode cache put: %w", err)
	}
	return nil
}

// geocodeKey collapses whitespace and case so formatting variations of
// the same address share one entry.
func geocodeKey(address string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(address), " "))
	return "dispatch:geocode:" + normalized
}
