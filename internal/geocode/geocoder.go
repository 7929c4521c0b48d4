// Package geocode resolves free-text addresses to coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"loadboard/internal/model"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"
)

// ErrEmptyAddress is the reason reported for blank input.
var ErrEmptyAddress = errors.New("address is empty")

// GeocodeError is returned when an address cannot be resolved.
type GeocodeError struct {
	Address string
	Reason  string
	Err     error
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("failed to geocode %q: %s", e.Address, e.Reason)
}

func (e *GeocodeError) Unwrap() error {
	return e.Err
}

// Gateway resolves an address to a single location.
type Gateway interface {
	Resolve(ctx context.Context, address string) (*model.ResolvedLocation, error)
}

// Config configures the Google geocoder.
type Config struct {
	APIKey string
	// BaseURL overrides the Google endpoint, used by tests.
	BaseURL string
	// Region biases results, e.g. "in".
	Region string
}

type googleGateway struct {
	client *maps.Client
	region string
	log    zerolog.Logger
}

// NewGoogleGateway creates a Gateway backed by the Google Geocoding API
func NewGoogleGateway(cfg Config, log zerolog.Logger) (Gateway, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &googleGateway{
		client: client,
		region: cfg.Region,
		log:    log.With().Str("component", "geocode").Logger(),
	}, nil
}

// Resolve returns the first result for the address. Zero results and any
// non-OK status are reported as *GeocodeError.
func (g *googleGateway) Resolve(ctx context.Context, address string) (*model.ResolvedLocation, error) {
	if strings.TrimSpace(address) == "" {
		return nil, &GeocodeError{Address: address, Reason: ErrEmptyAddress.Error(), Err: ErrEmptyAddress}
	}

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  g.region,
	})
	if err != nil {
		g.log.Warn().Err(err).Str("address", address).Msg("geocoding request failed")
		return nil, &GeocodeError{Address: address, Reason: err.Error(), Err: err}
	}
	if len(results) == 0 {
		return nil, &GeocodeError{Address: address, Reason: "no results found for the given address"}
	}

	first := results[0]
	lat, lng := first.Geometry.Location.Lat, first.Geometry.Location.Lng
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return nil, &GeocodeError{Address: address, Reason: "result has no usable coordinates"}
	}

	g.log.Debug().Str("address", address).Str("formatted", first.FormattedAddress).
		Float64("lat", lat).Float64("lng", lng).Msg("address resolved")

	return &model.ResolvedLocation{
		Latitude:         lat,
		Longitude:        lng,
		FormattedAddress: first.FormattedAddress,
	}, nil
}
