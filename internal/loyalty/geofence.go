package loyalty

import (
	"context"
	"errors"
	"math"

	"carte_challenge_echo/internal/models"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula
const earthRadiusMeters = 6371000.0

// PositionProvider acquires the caller's current position. Acquisition may
// block (device GPS, browser prompt); implementations must honor ctx and
// return a *LocationUnavailableError when a position cannot be supplied.
type PositionProvider interface {
	CurrentPosition(ctx context.Context) (models.Coordinates, error)
}

// PositionFunc adapts a function to the PositionProvider interface
type PositionFunc func(ctx context.Context) (models.Coordinates, error)

func (f PositionFunc) CurrentPosition(ctx context.Context) (models.Coordinates, error) {
	return f(ctx)
}

// StaticPosition returns a provider that always reports the given point
func StaticPosition(pos models.Coordinates) PositionProvider {
	return PositionFunc(func(context.Context) (models.Coordinates, error) {
		return pos, nil
	})
}

// ValidCoordinates reports whether the point lies within valid
// latitude/longitude ranges.
func ValidCoordinates(pos models.Coordinates) bool {
	return pos.Latitude >= -90 && pos.Latitude <= 90 &&
		pos.Longitude >= -180 && pos.Longitude <= 180
}

// Distance computes the great-circle distance in meters between two points
// using the haversine formula.
func Distance(a, b models.Coordinates) float64 {
	phi1 := a.Latitude * math.Pi / 180
	phi2 := b.Latitude * math.Pi / 180
	dPhi := (b.Latitude - a.Latitude) * math.Pi / 180
	dLambda := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// GeofenceResult is the outcome of a geofence check
type GeofenceResult struct {
	Accepted       bool
	DistanceMeters int
}

// ValidateGeofence decides whether pos is within the club's allowed radius.
// The boundary is inclusive: a distance exactly equal to the maximum is
// accepted. DistanceMeters is rounded to the nearest meter for display.
func ValidateGeofence(pos models.Coordinates, club models.ClubLocation) GeofenceResult {
	d := Distance(pos, club.Coordinates)
	return GeofenceResult{
		Accepted:       d <= club.MaxDistanceMeters,
		DistanceMeters: int(math.Round(d)),
	}
}

// AcquireAndValidate acquires the caller position once and runs the
// geofence check. A failed acquisition is reported as an error, never as a
// rejection.
func AcquireAndValidate(ctx context.Context, provider PositionProvider, club models.ClubLocation) (models.Coordinates, GeofenceResult, error) {
	pos, err := provider.CurrentPosition(ctx)
	if err != nil {
		var unavailable *LocationUnavailableError
		if errors.As(err, &unavailable) {
			return models.Coordinates{}, GeofenceResult{}, err
		}
		return models.Coordinates{}, GeofenceResult{}, &LocationUnavailableError{Cause: "position acquisition failed", Err: err}
	}
	if !ValidCoordinates(pos) {
		return models.Coordinates{}, GeofenceResult{}, &LocationUnavailableError{Cause: "coordinates out of range"}
	}
	return pos, ValidateGeofence(pos, club), nil
}
