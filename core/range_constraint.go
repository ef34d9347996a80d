package core

import (
	"github.com/signalsfoundry/route-link-planner/model"
)

// ValidateEndpoint gates placement of a route's second point. It returns the
// measured distance from start to candidate and, when maxRangeKm is set and
// exceeded, a *RangeViolationError. Run it before any elevation lookup.
func ValidateEndpoint(start, candidate model.Coordinate, maxRangeKm *float64) (float64, error) {
	d := DistanceKm(start, candidate)
	if !IsWithinRadius(start, candidate, maxRangeKm) {
		return d, &RangeViolationError{DistanceKm: d, MaxRangeKm: *maxRangeKm}
	}
	return d, nil
}

// BuildRangeBoundary returns the closed ring marking the vehicle's operating
// radius around center, or nil for an unconstrained vehicle.
func BuildRangeBoundary(center model.Coordinate, radiusKm *float64) []model.Coordinate {
	if radiusKm == nil {
		return nil
	}
	return BoundaryRing(center, *radiusKm)
}
