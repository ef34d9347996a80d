package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/route-link-planner/model"
)

// SegmentStatus is a coarse, human-readable classification of a segment's
// expected link condition.
type SegmentStatus string

const (
	SegmentGood     SegmentStatus = "good"
	SegmentDegraded SegmentStatus = "degraded"
	SegmentCritical SegmentStatus = "critical"
)

const (
	// CriticalQualityThreshold marks segments whose signal is too weak to
	// rely on.
	CriticalQualityThreshold = 0.3
	// DegradedQualityThreshold marks segments where the link is expected to
	// be intermittent.
	DegradedQualityThreshold = 0.6
	// DefaultUnrangedCeilingKm is the signal decay ceiling applied to
	// vehicles without a maximum range.
	DefaultUnrangedCeilingKm = 1000.0
)

// RouteSegment is the analysis of the interval between two consecutive
// elevation samples.
type RouteSegment struct {
	From model.ElevationSample `json:"from"`
	To   model.ElevationSample `json:"to"`

	DistanceKm float64 `json:"distanceKm"`
	// DistanceFromStartKm is the route distance from the start to From.
	DistanceFromStartKm float64 `json:"distanceFromStartKm"`

	HasLineOfSight bool          `json:"hasLOS"`
	SignalQuality  float64       `json:"signalQuality"`
	IsCritical     bool          `json:"isCritical"`
	Status         SegmentStatus `json:"status"`
}

// AnalyzerConfig tunes the link feasibility analysis.
type AnalyzerConfig struct {
	// Policy decides line of sight. Nil means FresnelZoneHeuristic.
	Policy LineOfSightPolicy

	// UnrangedCeilingKm is the distance at which signal quality reaches
	// zero for vehicles without MaxRangeKm. Zero or less uses the total
	// route length instead.
	UnrangedCeilingKm float64
}

// DefaultAnalyzerConfig returns the Fresnel-zone policy with the default
// unranged ceiling.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Policy:            FresnelZoneHeuristic{},
		UnrangedCeilingKm: DefaultUnrangedCeilingKm,
	}
}

// LinkAnalyzer turns an elevation profile and a vehicle profile into
// per-segment link classifications. It is stateless and safe for
// concurrent use.
type LinkAnalyzer struct {
	cfg AnalyzerConfig
}

// NewLinkAnalyzer constructs an analyzer, filling in a nil policy.
func NewLinkAnalyzer(cfg AnalyzerConfig) *LinkAnalyzer {
	if cfg.Policy == nil {
		cfg.Policy = FresnelZoneHeuristic{}
	}
	return &LinkAnalyzer{cfg: cfg}
}

// Policy returns the configured line-of-sight policy.
func (a *LinkAnalyzer) Policy() LineOfSightPolicy { return a.cfg.Policy }

// AnalyzeSegments produces exactly len(samples)-1 segments. The samples
// must be the full, uncollapsed profile in route order.
func (a *LinkAnalyzer) AnalyzeSegments(samples []model.ElevationSample, vehicle model.VehicleProfile) ([]RouteSegment, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", ErrIncompleteProfile, len(samples))
	}
	if err := ValidateVehicleProfile(vehicle); err != nil {
		return nil, err
	}
	for i, s := range samples {
		if err := ValidateCoordinate(s.Coordinate); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}

	route := NewSampledRoute(samples)
	los, err := a.cfg.Policy.SegmentLineOfSight(route, vehicle.EffectiveFrequencyGHz())
	if err != nil {
		return nil, err
	}
	if len(los) != len(samples)-1 {
		return nil, fmt.Errorf("line-of-sight policy %s returned %d flags for %d segments",
			a.cfg.Policy.Name(), len(los), len(samples)-1)
	}

	ceiling := a.ceilingKm(vehicle, route)
	segments := make([]RouteSegment, len(los))
	for i := range segments {
		quality := SignalQuality(route.FromStartKm[i], ceiling)
		seg := RouteSegment{
			From:                samples[i],
			To:                  samples[i+1],
			DistanceKm:          route.SegmentKm[i],
			DistanceFromStartKm: route.FromStartKm[i],
			HasLineOfSight:      los[i],
			SignalQuality:       quality,
		}
		seg.IsCritical = quality < CriticalQualityThreshold || !seg.HasLineOfSight
		seg.Status = classifySegment(seg)
		segments[i] = seg
	}
	return segments, nil
}

func (a *LinkAnalyzer) ceilingKm(vehicle model.VehicleProfile, route SampledRoute) float64 {
	if vehicle.MaxRangeKm != nil {
		return *vehicle.MaxRangeKm
	}
	if a.cfg.UnrangedCeilingKm > 0 {
		return a.cfg.UnrangedCeilingKm
	}
	return route.TotalKm()
}

// SignalQuality is the normalised link quality at distanceKm from the
// operator: (1 - min(distance/ceiling, 1))^2. It is non-increasing in
// distance and lies in [0, 1].
func SignalQuality(distanceKm, ceilingKm float64) float64 {
	if ceilingKm <= 0 {
		if distanceKm <= 0 {
			return 1
		}
		return 0
	}
	ratio := math.Min(math.Max(distanceKm, 0)/ceilingKm, 1)
	return (1 - ratio) * (1 - ratio)
}

func classifySegment(seg RouteSegment) SegmentStatus {
	switch {
	case seg.IsCritical:
		return SegmentCritical
	case seg.SignalQuality < DegradedQualityThreshold:
		return SegmentDegraded
	default:
		return SegmentGood
	}
}

// ValidateVehicleProfile rejects range limits that are not positive and
// frequencies that are negative or not finite.
func ValidateVehicleProfile(v model.VehicleProfile) error {
	if r := v.MaxRangeKm; r != nil && (math.IsNaN(*r) || math.IsInf(*r, 0) || *r <= 0) {
		return fmt.Errorf("%w: max range %v km must be positive", ErrInvalidVehicleProfile, *r)
	}
	if f := v.FrequencyGHz; math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return fmt.Errorf("%w: frequency %v GHz must be positive", ErrInvalidVehicleProfile, f)
	}
	return nil
}
