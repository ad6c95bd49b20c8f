package loyalty

import (
	"context"
	"errors"
	"math"
	"testing"

	"carte_challenge_echo/internal/models"
)

var testClub = models.ClubLocation{
	Coordinates:       models.Coordinates{Latitude: 48.877053, Longitude: 2.817765},
	MaxDistanceMeters: 60,
}

// pointAtDistance returns a point the given number of meters due north of
// the club. A pure latitude offset keeps the great-circle distance equal to
// earth radius times the latitude delta, so expected distances are exact up
// to float rounding.
func pointAtDistance(meters float64) models.Coordinates {
	deltaDeg := meters / earthRadiusMeters * 180 / math.Pi
	return models.Coordinates{
		Latitude:  testClub.Latitude + deltaDeg,
		Longitude: testClub.Longitude,
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(testClub.Coordinates, testClub.Coordinates); d != 0 {
		t.Errorf("Distance to self = %v, want 0", d)
	}

	d := Distance(testClub.Coordinates, pointAtDistance(500))
	if math.Abs(d-500) > 0.01 {
		t.Errorf("Distance = %v, want 500m", d)
	}
}

func TestValidateGeofence(t *testing.T) {
	tests := []struct {
		name         string
		meters       float64
		wantAccepted bool
		wantDistance int
	}{
		{"at the club", 0, true, 0},
		{"well inside", 30, true, 30},
		{"near the boundary", 59.9, true, 60},
		{"just outside", 61, false, 61},
		{"far away", 5000, false, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateGeofence(pointAtDistance(tt.meters), testClub)
			if got.Accepted != tt.wantAccepted {
				t.Errorf("Accepted = %v, want %v", got.Accepted, tt.wantAccepted)
			}
			if got.DistanceMeters != tt.wantDistance {
				t.Errorf("DistanceMeters = %d, want %d", got.DistanceMeters, tt.wantDistance)
			}
		})
	}
}

func TestValidCoordinates(t *testing.T) {
	if !ValidCoordinates(models.Coordinates{Latitude: -90, Longitude: 180}) {
		t.Error("range boundary rejected")
	}
	if ValidCoordinates(models.Coordinates{Latitude: 91, Longitude: 0}) {
		t.Error("latitude out of range accepted")
	}
	if ValidCoordinates(models.Coordinates{Latitude: 0, Longitude: -181}) {
		t.Error("longitude out of range accepted")
	}
}

func TestAcquireAndValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted inside the fence", func(t *testing.T) {
		pos, res, err := AcquireAndValidate(ctx, StaticPosition(pointAtDistance(10)), testClub)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Accepted {
			t.Error("position inside the fence rejected")
		}
		if pos.Latitude == 0 {
			t.Error("acquired position not returned")
		}
	})

	t.Run("provider failure becomes LocationUnavailable", func(t *testing.T) {
		provider := PositionFunc(func(context.Context) (models.Coordinates, error) {
			return models.Coordinates{}, errors.New("gps timeout")
		})
		_, _, err := AcquireAndValidate(ctx, provider, testClub)
		var unavailable *LocationUnavailableError
		if !errors.As(err, &unavailable) {
			t.Fatalf("error = %v, want *LocationUnavailableError", err)
		}
	})

	t.Run("out of range coordinates rejected", func(t *testing.T) {
		provider := StaticPosition(models.Coordinates{Latitude: 200, Longitude: 0})
		_, _, err := AcquireAndValidate(ctx, provider, testClub)
		var unavailable *LocationUnavailableError
		if !errors.As(err, &unavailable) {
			t.Fatalf("error = %v, want *LocationUnavailableError", err)
		}
	})
}
