// Package geo picks a service area from the device position.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrNoLocations      = errors.New("no service areas available")
)

const earthRadiusKm = 6371

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

type Address struct {
	City    string
	Region  string
	Postal  string
	Country string
}

// Provider is the device location service.
type Provider interface {
	RequestPermission(ctx context.Context) (bool, error)
	CurrentPosition(ctx context.Context) (Coordinates, error)
	// ReverseGeocode returns nil when no address is known.
	ReverseGeocode(ctx context.Context, c Coordinates) (*Address, error)
}

type Detection struct {
	Position Coordinates
	// Address is informational and may be nil.
	Address  *Address
	Location domain.Location
	// DistanceKm is negative when no location had coordinates and the first
	// one was chosen.
	DistanceKm float64
}

// Detect locates the device and selects the nearest service area. Areas
// without coordinates are skipped; if none has any, the first area is chosen.
func Detect(ctx context.Context, p Provider, locations []domain.Location) (Detection, error) {
	if len(locations) == 0 {
		return Detection{}, ErrNoLocations
	}

	granted, err := p.RequestPermission(ctx)
	if err != nil {
		return Detection{}, fmt.Errorf("request location permission: %w", err)
	}
	if !granted {
		return Detection{}, ErrPermissionDenied
	}

	pos, err := p.CurrentPosition(ctx)
	if err != nil {
		return Detection{}, fmt.Errorf("get current position: %w", err)
	}

	d := Detection{Position: pos, Location: locations[0], DistanceKm: -1}
	for _, loc := range locations {
		if !loc.HasCoordinates() {
			continue
		}
		dist := Distance(pos, Coordinates{Latitude: *loc.Latitude, Longitude: *loc.Longitude})
		if d.DistanceKm < 0 || dist < d.DistanceKm {
			d.Location = loc
			d.DistanceKm = dist
		}
	}

	// the address only decorates the result
	if addr, err := p.ReverseGeocode(ctx, pos); err == nil {
		d.Address = addr
	}

	return d, nil
}

// Distance is the haversine great-circle distance in kilometres.
func Distance(a, b Coordinates) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// StaticProvider reports a fixed position, for hosts without location services.
type StaticProvider struct {
	Position Coordinates
	Address  *Address
	Denied   bool
}

func (s StaticProvider) RequestPermission(context.Context) (bool, error) {
	return !s.Denied, nil
}

func (s StaticProvider) CurrentPosition(context.Context) (Coordinates, error) {
	return s.Position, nil
}

func (s StaticProvider) ReverseGeocode(context.Context, Coordinates) (*Address, error) {
	return s.Address, nil
}
