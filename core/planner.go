package core

import (
	"context"
	"fmt"
	"math"

	"github.com/signalsfoundry/route-link-planner/model"
)

// ElevationSource resolves terrain elevations for an ordered list of
// coordinates. Implementations must return one value per coordinate, in
// the same order, or an error. They must never substitute zeros for values
// they could not resolve.
type ElevationSource interface {
	Elevations(ctx context.Context, points []model.Coordinate) ([]float64, error)
}

// ElevationSourceFunc adapts a function to ElevationSource.
type ElevationSourceFunc func(ctx context.Context, points []model.Coordinate) ([]float64, error)

func (f ElevationSourceFunc) Elevations(ctx context.Context, points []model.Coordinate) ([]float64, error) {
	return f(ctx, points)
}

// Planner is the engine's entry point. It holds only immutable
// configuration and is safe for concurrent use.
type Planner struct {
	source   ElevationSource
	analyzer *LinkAnalyzer
}

// PlannerOption customises Planner construction.
type PlannerOption func(*AnalyzerConfig)

// WithLineOfSightPolicy overrides the default Fresnel-zone policy.
func WithLineOfSightPolicy(p LineOfSightPolicy) PlannerOption {
	return func(c *AnalyzerConfig) {
		c.Policy = p
	}
}

// WithUnrangedCeilingKm sets the signal decay ceiling for vehicles without
// a maximum range. Zero or less means "use the route length".
func WithUnrangedCeilingKm(km float64) PlannerOption {
	return func(c *AnalyzerConfig) {
		c.UnrangedCeilingKm = km
	}
}

// NewPlanner wires an elevation source into the analysis pipeline. The
// source may be nil for callers that only use AnalyzeProfile and
// ComputeRangeBoundary.
func NewPlanner(source ElevationSource, opts ...PlannerOption) *Planner {
	cfg := DefaultAnalyzerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Planner{
		source:   source,
		analyzer: NewLinkAnalyzer(cfg),
	}
}

// Analyzer exposes the configured link analyzer.
func (p *Planner) Analyzer() *LinkAnalyzer { return p.analyzer }

// PlanRoute validates the request, gates the endpoint against the vehicle's
// range, samples the route, resolves elevations and analyses the link.
// Errors wrap ErrInvalidCoordinate, ErrInvalidVehicleProfile,
// ErrRangeViolation (as *RangeViolationError) or
// ErrElevationSourceUnavailable.
func (p *Planner) PlanRoute(ctx context.Context, start, candidateEnd model.Coordinate, vehicle model.VehicleProfile) (*RouteAnalysisResult, error) {
	samples, err := p.SampleRoute(ctx, start, candidateEnd, vehicle)
	if err != nil {
		return nil, err
	}
	return p.AnalyzeProfile(samples, vehicle)
}

// SampleRoute runs every step of PlanRoute up to and including elevation
// resolution and returns the full-resolution profile.
func (p *Planner) SampleRoute(ctx context.Context, start, candidateEnd model.Coordinate, vehicle model.VehicleProfile) ([]model.ElevationSample, error) {
	if err := ValidateCoordinate(start); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if err := ValidateCoordinate(candidateEnd); err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	if err := ValidateVehicleProfile(vehicle); err != nil {
		return nil, err
	}
	if _, err := ValidateEndpoint(start, candidateEnd, vehicle.MaxRangeKm); err != nil {
		return nil, err
	}

	points := BuildSampleCoordinates(start, candidateEnd)
	elevations, err := ResolveElevations(ctx, p.source, points)
	if err != nil {
		return nil, err
	}

	samples := make([]model.ElevationSample, len(points))
	for i, pt := range points {
		samples[i] = model.ElevationSample{Coordinate: pt, ElevationM: elevations[i]}
	}
	return samples, nil
}

// ResolveElevations queries source for points and checks the answer: one
// value per point, NaN allowed, infinities rejected. Every failure wraps
// ErrElevationSourceUnavailable.
func ResolveElevations(ctx context.Context, source ElevationSource, points []model.Coordinate) ([]float64, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: no elevation source configured", ErrElevationSourceUnavailable)
	}
	elevations, err := source.Elevations(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrElevationSourceUnavailable, err)
	}
	if len(elevations) != len(points) {
		return nil, fmt.Errorf("%w: requested %d elevations, got %d",
			ErrElevationSourceUnavailable, len(points), len(elevations))
	}
	for i, e := range elevations {
		if math.IsInf(e, 0) {
			return nil, fmt.Errorf("%w: elevation %d is not finite", ErrElevationSourceUnavailable, i)
		}
	}
	return elevations, nil
}

// AnalyzeProfile classifies a caller-resolved, full-resolution profile and
// aggregates the result.
func (p *Planner) AnalyzeProfile(samples []model.ElevationSample, vehicle model.VehicleProfile) (*RouteAnalysisResult, error) {
	segments, err := p.analyzer.AnalyzeSegments(samples, vehicle)
	if err != nil {
		return nil, err
	}
	res := Aggregate(segments)
	return &res, nil
}

// ComputeRangeBoundary returns the operating-radius ring for a vehicle
// launched at center, or nil when the vehicle is unconstrained.
func (p *Planner) ComputeRangeBoundary(center model.Coordinate, vehicle model.VehicleProfile) ([]model.Coordinate, error) {
	if err := ValidateCoordinate(center); err != nil {
		return nil, err
	}
	if err := ValidateVehicleProfile(vehicle); err != nil {
		return nil, err
	}
	return BuildRangeBoundary(center, vehicle.MaxRangeKm), nil
}
