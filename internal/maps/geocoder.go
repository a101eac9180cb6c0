// README: Address lookup through the Google Geocoding API; display only, never used for pricing.
package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("geocoding disabled")

// Place is a simplified geocoding result.
type Place struct {
	Address    string  `json:"address"`
	City       string  `json:"city,omitempty"`
	PostalCode string  `json:"postal_code,omitempty"`
	PlaceID    string  `json:"place_id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

type geocodeClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// Geocoder handles interactions with the Google Geocoding API.
type Geocoder struct {
	client geocodeClient
	limit  int
}

// NewGeocoder creates a Geocoder for the given API key. An empty key yields a Geocoder
// whose lookups return ErrDisabled.
func NewGeocoder(apiKey string) (*Geocoder, error) {
	if apiKey == "" {
		return &Geocoder{}, nil
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Geocoder{client: client, limit: 3}, nil
}

func (g *Geocoder) Enabled() bool {
	return g != nil && g.client != nil
}

// Lookup returns up to three candidate places for a free-form French address.
func (g *Geocoder) Lookup(ctx context.Context, address string) ([]Place, error) {
	if !g.Enabled() {
		return nil, ErrDisabled
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}

	resp, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address:  address,
		Region:   "fr",
		Language: "fr",
	})
	if err != nil {
		return nil, fmt.Errorf("geocoding api error: %w", err)
	}

	var results []Place
	for _, r := range resp {
		results = append(results, placeFromResult(r))
		if len(results) >= g.limit {
			break
		}
	}
	return results, nil
}

func placeFromResult(r maps.GeocodingResult) Place {
	p := Place{
		Address: r.FormattedAddress,
		PlaceID: r.PlaceID,
		Lat:     r.Geometry.Location.Lat,
		Lng:     r.Geometry.Location.Lng,
	}
	for _, c := range r.AddressComponents {
		for _, t := range c.Types {
			switch t {
			case "locality":
				p.City = c.LongName
			case "postal_code":
				p.PostalCode = c.LongName
			}
		}
	}
	return p
}
