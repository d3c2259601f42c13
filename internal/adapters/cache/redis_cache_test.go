package cache

import (
	"context"
	"testing"
	"time"

	"dispatch-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestDistanceCacheRoundTrip(t *testing.T) {
	c := NewRedisDistanceCache(newTestClient(t), time.Hour)
	ctx := context.Background()

	origin := domain.Coordinates{Lat: 10.8231, Lon: 106.6297}
	dest := domain.Coordinates{Lat: 10.7626, Lon: 106.6601}

	if _, found, err := c.Get(ctx, origin, dest); err != nil || found {
		t.Fatalf("empty cache: found=%v err=%v", found, err)
	}

	if err := c.Put(ctx, origin, dest, 9.42); err != nil {
		t.Fatal(err)
	}
	km, found, err := c.Get(ctx, origin, dest)
	if err != nil {
		t.Fatal(err)
	}
	if !found || km != 9.42 {
		t.Errorf("got %v found=%v, want 9.42", km, found)
	}

	// Direction matters for routed distances.
	if _, found, _ := c.Get(ctx, dest, origin); found {
		t.Error("reverse direction must miss")
	}
}

func TestDistanceCacheRejectsNegative(t *testing.T) {
	c := NewRedisDistanceCache(newTestClient(t), time.Hour)
	origin := domain.Coordinates{Lat: 10.82, Lon: 106.62}
	if err := c.Put(context.Background(), origin, origin, -1); err == nil {
		t.Fatal("expected error for negative distance")
	}
}

func TestGeocodeCacheNormalizesAddress(t *testing.T) {
	c := NewRedisGeocodeCache(newTestClient(t), time.Hour)
	ctx := context.Background()

	coords := domain.Coordinates{Lat: 10.7769, Lon: 106.7009}
	if err := c.Put(ctx, "12  Vo Van Kiet,  District 1", coords); err != nil {
		t.Fatal(err)
	}

	got, found, err := c.Get(ctx, "12 vo van kiet, district 1")
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != coords {
		t.Errorf("got %+v found=%v, want %+v", got, found, coords)
	}
}
