package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

var (
	kochi    = domain.Location{ID: "L1", Name: "Kochi", Latitude: ptr(9.9312), Longitude: ptr(76.2673)}
	thrissur = domain.Location{ID: "L2", Name: "Thrissur", Latitude: ptr(10.5276), Longitude: ptr(76.2144)}
	noCoords = domain.Location{ID: "L3", Name: "Rural"}
)

type mockProvider struct {
	granted bool
	permErr error
	pos     Coordinates
	posErr  error
	addr    *Address
	geoErr  error
}

func (m mockProvider) RequestPermission(context.Context) (bool, error) { return m.granted, m.permErr }
func (m mockProvider) CurrentPosition(context.Context) (Coordinates, error) {
	return m.pos, m.posErr
}
func (m mockProvider) ReverseGeocode(context.Context, Coordinates) (*Address, error) {
	return m.addr, m.geoErr
}

func TestDistance(t *testing.T) {
	d := Distance(Coordinates{9.9312, 76.2673}, Coordinates{10.5276, 76.2144})
	assert.InDelta(t, 66.6, d, 1.0)
	assert.Zero(t, Distance(Coordinates{1, 1}, Coordinates{1, 1}))
}

func TestDetect_PicksNearest(t *testing.T) {
	p := mockProvider{granted: true, pos: Coordinates{10.52, 76.21}, addr: &Address{City: "Thrissur"}}

	d, err := Detect(context.Background(), p, []domain.Location{noCoords, kochi, thrissur})
	require.NoError(t, err)
	assert.Equal(t, "L2", d.Location.ID)
	assert.Less(t, d.DistanceKm, 2.0)
	require.NotNil(t, d.Address)
	assert.Equal(t, "Thrissur", d.Address.City)
}

func TestDetect_FallsBackToFirstWithoutCoordinates(t *testing.T) {
	p := mockProvider{granted: true, pos: Coordinates{10, 76}, geoErr: errors.New("geocoder offline")}

	d, err := Detect(context.Background(), p, []domain.Location{noCoords, {ID: "L4"}})
	require.NoError(t, err)
	assert.Equal(t, "L3", d.Location.ID)
	assert.Negative(t, d.DistanceKm)
	assert.Nil(t, d.Address, "geocoding failure is ignored")
}

func TestDetect_Failures(t *testing.T) {
	ctx := context.Background()
	locs := []domain.Location{kochi}

	_, err := Detect(ctx, mockProvider{granted: false}, locs)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = Detect(ctx, mockProvider{permErr: errors.New("no service")}, locs)
	assert.ErrorContains(t, err, "no service")

	_, err = Detect(ctx, mockProvider{granted: true, posErr: errors.New("gps timeout")}, locs)
	assert.ErrorContains(t, err, "gps timeout")

	_, err = Detect(ctx, mockProvider{granted: true}, nil)
	assert.ErrorIs(t, err, ErrNoLocations)
}

func TestStaticProvider(t *testing.T) {
	d, err := Detect(context.Background(), StaticProvider{Position: Coordinates{9.93, 76.26}}, []domain.Location{thrissur, kochi})
	require.NoError(t, err)
	assert.Equal(t, "L1", d.Location.ID)

	_, err = Detect(context.Background(), StaticProvider{Denied: true}, []domain.Location{kochi})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
