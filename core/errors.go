package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCoordinate is returned for latitudes outside [-90, 90],
	// longitudes outside [-180, 180], or non-finite values.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrRangeViolation is returned when a route endpoint lies beyond the
	// vehicle's maximum operating radius. See RangeViolationError.
	ErrRangeViolation = errors.New("endpoint outside vehicle range")
	// ErrElevationSourceUnavailable wraps failures of the external
	// elevation source, including results of the wrong length.
	ErrElevationSourceUnavailable = errors.New("elevation source unavailable")
	// ErrIncompleteProfile is returned when an elevation profile cannot
	// form at least one analysable segment.
	ErrIncompleteProfile = errors.New("incomplete elevation profile")
	// ErrInvalidVehicleProfile is returned for non-positive range limits or
	// negative frequencies.
	ErrInvalidVehicleProfile = errors.New("invalid vehicle profile")
)

// RangeViolationError carries the measured distance and the limit that was
// exceeded so callers can render a precise message.
type RangeViolationError struct {
	DistanceKm float64
	MaxRangeKm float64
}

func (e *RangeViolationError) Error() string {
	return fmt.Sprintf("%s: endpoint is %.2f km from start, limit is %.2f km",
		ErrRangeViolation, e.DistanceKm, e.MaxRangeKm)
}

// Unwrap lets errors.Is match ErrRangeViolation.
func (e *RangeViolationError) Unwrap() error { return ErrRangeViolation }
