package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"dispatch-service/internal/adapters/cache"
	"dispatch-service/internal/domain"

	"go.uber.org/zap"
)

// GoongClient implements DistanceProvider and Geocoder against the
// Goong routing API.
//
// It coordinates:
//   - Persistent geocode caching
//   - Persistent routed-distance caching
//   - External API calls with retry/backoff
//
// The client is safe for concurrent use.
type GoongClient struct {
	session       *http.Client
	apiKey        string
	baseURL       string
	vehicle       string
	distanceCache *cache.RedisDistanceCache
	geocodeCache  *cache.RedisGeocodeCache
}

func NewGoongClient(
	apiKey string,
	distanceCache *cache.RedisDistanceCache,
	geocodeCache *cache.RedisGeocodeCache,
) (*GoongClient, error) {
	if apiKey == "" {
		return nil, errors.New("goong api key is empty")
	}

	client := &GoongClient{
		session:       &http.Client{Timeout: 10 * time.Second},
		apiKey:        apiKey,
		baseURL:       "https://rsapi.goong.io",
		vehicle:       "car",
		distanceCache: distanceCache,
		geocodeCache:  geocodeCache,
	}
	return client, nil
}

type goongMatrixResponse struct {
	Rows []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value int `json:"value"` // meters
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// GetDistanceKm returns the routed driving distance between two points,
// cache-first.
func (g *GoongClient) GetDistanceKm(
	ctx context.Context,
	origin, destination domain.Coordinates,
) (float64, error) {
	if origin.IsZero() || destination.IsZero() {
		return 0, errors.New("get goong distance: origin and destination must be set")
	}

	if g.distanceCache != nil {
		km, found, err := g.distanceCache.Get(ctx, origin, destination)
		if err != nil {
			zap.L().Warn("distance cache read failed", zap.Error(err))
		} else if found {
			return km, nil
		}
	}

	endpoint := fmt.Sprintf(
		"%s/DistanceMatrix?origins=%s&destinations=%s&vehicle=%s&api_key=%s",
		g.baseURL,
		url.QueryEscape(coordsParam(origin)),
		url.QueryEscape(coordsParam(destination)),
		g.vehicle,
		url.QueryEscape(g.apiKey),
	)

	resp, err := g.doWithRetry(ctx, func() (*http.Request, error) {
		return g.newRequest(ctx, endpoint)
	})
	if err != nil {
		return 0, fmt.Errorf("get goong distance: %w", err)
	}
	defer resp.Body.Close()

	var matrix goongMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&matrix); err != nil {
		return 0, fmt.Errorf("get goong distance: decode response: %w", err)
	}
	if len(matrix.Rows) == 0 || len(matrix.Rows[0].Elements) == 0 {
		return 0, errors.New("get goong distance: empty matrix response")
	}
	element := matrix.Rows[0].Elements[0]
	if element.Status != "" && element.Status != "OK" {
		return 0, fmt.Errorf("get goong distance: element status %s", element.Status)
	}

	km := float64(element.Distance.Value) / 1000.0

	if g.distanceCache != nil {
		if err := g.distanceCache.Put(ctx, origin, destination, km); err != nil {
			zap.L().Warn("distance cache write failed", zap.Error(err))
		}
	}
	return km, nil
}

func coordsParam(c domain.Coordinates) string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lon)
}
