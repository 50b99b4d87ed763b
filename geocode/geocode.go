package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

var ErrNoResults = errors.New("address not found")

type Place struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Geocoder turns a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Place, error)
}

// MapsGeocoder forward-geocodes through the Google Maps API, biased to Sri Lanka.
type MapsGeocoder struct {
	client *maps.Client
	Region string
}

func NewMapsGeocoder(apiKey string, opts ...maps.ClientOption) (*MapsGeocoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("maps api key not set")
	}
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &MapsGeocoder{client: client, Region: "lk"}, nil
}

// Geocode returns the first result for address.
func (g *MapsGeocoder) Geocode(ctx context.Context, address string) (Place, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Place{}, ErrNoResults
	}
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  g.Region,
	})
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return Place{}, ErrNoResults
		}
		return Place{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return Place{}, ErrNoResults
	}
	loc := results[0].Geometry.Location
	return Place{Latitude: loc.Lat, Longitude: loc.Lng, Address: results[0].FormattedAddress}, nil
}
