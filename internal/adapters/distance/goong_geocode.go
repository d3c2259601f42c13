package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"dispatch-service/internal/domain"
	"dispatch-service/internal/ports"

	"go.uber.org/zap"
)

type goongGeocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type goongAutocompleteResponse struct {
	Predictions []struct {
		PlaceID     string `json:"place_id"`
		Description string `json:"description"`
	} `json:"predictions"`
}

type goongPlaceDetailResponse struct {
	Result struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
}

// Resolve geocodes a full address to coordinates, cache-first.
func (g *GoongClient) Resolve(ctx context.Context, address string) (domain.Coordinates, error) {
	address = strings.Join(strings.Fields(address), " ")
	if address == "" {
		return domain.Coordinates{}, errors.New("resolve address: address must not be empty")
	}

	if g.geocodeCache != nil {
		coords, found, err := g.geocodeCache.Get(ctx, address)
		if err != nil {
			zap.L().Warn("geocode cache read failed", zap.Error(err))
		} else if found {
			return coords, nil
		}
	}

	endpoint := fmt.Sprintf("%s/geocode?address=%s&api_key=%s",
		g.baseURL, url.QueryEscape(address), url.QueryEscape(g.apiKey))

	var decoded goongGeocodeResponse
	if err := g.getJSON(ctx, endpoint, &decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("resolve address %q: %w", address, err)
	}
	if len(decoded.Results) == 0 {
		return domain.Coordinates{}, fmt.Errorf("resolve address %q: no results", address)
	}

	loc := decoded.Results[0].Geometry.Location
	coords := domain.Coordinates{Lat: loc.Lat, Lon: loc.Lng}
	if coords.IsZero() {
		return domain.Coordinates{}, fmt.Errorf("resolve address %q: zero coordinates", address)
	}

	if g.geocodeCache != nil {
		if err := g.geocodeCache.Put(ctx, address, coords); err != nil {
			zap.L().Warn("geocode cache write failed", zap.Error(err))
		}
	}
	return coords, nil
}

// Autocomplete suggests places for a partial address.
func (g *GoongClient) Autocomplete(ctx context.Context, text string) ([]ports.Suggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("autocomplete: input must not be empty")
	}

	endpoint := fmt.Sprintf("%s/Place/AutoComplete?input=%s&api_key=%s",
		g.baseURL, url.QueryEscape(text), url.QueryEscape(g.apiKey))

	var decoded goongAutocompleteResponse
	if err := g.getJSON(ctx, endpoint, &decoded); err != nil {
		return nil, fmt.Errorf("autocomplete %q: %w", text, err)
	}

	suggestions := make([]ports.Suggestion, 0, len(decoded.Predictions))
	for _, p := range decoded.Predictions {
		suggestions = append(suggestions, ports.Suggestion{
			PlaceID: p.PlaceID,
			Label:   p.Description,
		})
	}
	return suggestions, nil
}

// PlaceDetail resolves an autocomplete place id to coordinates.
func (g *GoongClient) PlaceDetail(ctx context.Context, placeID string) (domain.Coordinates, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return domain.Coordinates{}, errors.New("place detail: place id must not be empty")
	}

	endpoint := fmt.Sprintf("%s/Place/Detail?place_id=%s&api_key=%s",
		g.baseURL, url.QueryEscape(placeID), url.QueryEscape(g.apiKey))

	var decoded goongPlaceDetailResponse
	if err := g.getJSON(ctx, endpoint, &decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("place detail %q: %w", placeID, err)
	}

	loc := decoded.Result.Geometry.Location
	return domain.Coordinates{Lat: loc.Lat, Lon: loc.Lng}, nil
}

func (g *GoongClient) getJSON(ctx context.Context, endpoint string, out any) error {
	resp, err := g.doWithRetry(ctx, func() (*http.Request, error) {
		return g.newRequest(ctx, endpoint)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
