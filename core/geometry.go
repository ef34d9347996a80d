package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/route-link-planner/model"
	"golang.org/x/exp/constraints"
)

// EarthRadiusKm is the mean Earth radius used for all spherical
// geometry in the planner (kilometres).
const EarthRadiusKm = 6371.0

// boundaryStepDeg is the bearing increment used when sweeping a range ring.
const boundaryStepDeg = 1

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ValidateCoordinate rejects coordinates outside the valid latitude and
// longitude ranges. Values are never clamped.
func ValidateCoordinate(c model.Coordinate) error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return fmt.Errorf("%w: %v is not finite", ErrInvalidCoordinate, c)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %.6f outside [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude %.6f outside [-180, 180]", ErrInvalidCoordinate, c.Lng)
	}
	return nil
}

// DistanceKm returns the great-circle distance between a and b using the
// haversine formula.
func DistanceKm(a, b model.Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// DestinationPoint returns the point reached by travelling distanceKm from
// origin along the initial great-circle bearing bearingDeg (clockwise from
// north).
func DestinationPoint(origin model.Coordinate, bearingDeg, distanceKm float64) model.Coordinate {
	lat1 := toRadians(origin.Lat)
	lng1 := toRadians(origin.Lng)
	theta := toRadians(bearingDeg)
	delta := distanceKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lng2 := lng1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return model.Coordinate{
		Lat: toDegrees(lat2),
		Lng: normalizeLongitude(toDegrees(lng2)),
	}
}

// normalizeLongitude wraps a longitude into [-180, 180].
func normalizeLongitude(lng float64) float64 {
	if lng >= -180 && lng <= 180 {
		return lng
	}
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}

// IsWithinRadius reports whether point lies within radiusKm of center.
// A nil radius means unconstrained and always returns true.
func IsWithinRadius(center, point model.Coordinate, radiusKm *float64) bool {
	if radiusKm == nil {
		return true
	}
	return DistanceKm(center, point) <= *radiusKm
}

// BoundaryRing sweeps bearings 0°..360° inclusive at 1° steps and returns
// the closed ring of points at radiusKm from center. The last point repeats
// the first.
func BoundaryRing(center model.Coordinate, radiusKm float64) []model.Coordinate {
	ring := make([]model.Coordinate, 0, 360/boundaryStepDeg+1)
	for bearing := 0; bearing < 360; bearing += boundaryStepDeg {
		ring = append(ring, DestinationPoint(center, float64(bearing), radiusKm))
	}
	// 360° lands on 0° up to rounding; repeat the first point exactly.
	return append(ring, ring[0])
}
