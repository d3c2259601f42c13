package distance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"dispatch-service/internal/adapters/cache"
	"dispatch-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const matrixBody = `{"rows":[{"elements":[{"status":"OK","distance":{"value":9420}}]}]}`

func newTestGoong(t *testing.T, handler http.Handler) (*GoongClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})

	client, err := NewGoongClient("test-key",
		cache.NewRedisDistanceCache(rdb, time.Hour),
		cache.NewRedisGeocodeCache(rdb, time.Hour),
	)
	if err != nil {
		t.Fatal(err)
	}
	client.baseURL = server.URL
	return client, server
}

func TestGoongDistanceCacheFirst(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestGoong(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(matrixBody))
	}))

	origin := domain.Coordinates{Lat: 10.8231, Lon: 106.6297}
	dest := domain.Coordinates{Lat: 10.7626, Lon: 106.6601}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		km, err := client.GetDistanceKm(ctx, origin, dest)
		if err != nil {
			t.Fatal(err)
		}
		if km != 9.42 {
			t.Fatalf("distance = %v, want 9.42", km)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("API called %d times, want 1 (cache must absorb repeats)", got)
	}
}

func TestGoongDistanceRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestGoong(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(matrixBody))
	}))

	km, err := client.GetDistanceKm(context.Background(),
		domain.Coordinates{Lat: 10.82, Lon: 106.63},
		domain.Coordinates{Lat: 10.76, Lon: 106.66})
	if err != nil {
		t.Fatal(err)
	}
	if km != 9.42 {
		t.Errorf("distance = %v, want 9.42", km)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (one failure, one retry)", calls.Load())
	}
}

func TestGoongDistanceDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestGoong(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.GetDistanceKm(context.Background(),
		domain.Coordinates{Lat: 10.82, Lon: 106.63},
		domain.Coordinates{Lat: 10.76, Lon: 106.66})
	if err == nil {
		t.Fatal("expected error on 403")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (4xx is not retryable)", calls.Load())
	}
}

func TestGoongResolve(t *testing.T) {
	client, _ := newTestGoong(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"geometry":{"location":{"lat":10.7769,"lng":106.7009}}}]}`))
	}))

	coords, err := client.Resolve(context.Background(), "135 Nguyen Hue, District 1")
	if err != nil {
		t.Fatal(err)
	}
	want := domain.Coordinates{Lat: 10.7769, Lon: 106.7009}
	if coords != want {
		t.Errorf("coords = %+v, want %+v", coords, want)
	}
}
