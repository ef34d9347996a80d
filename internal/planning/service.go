// Package planning orchestrates route analysis for the gRPC and HTTP
// surfaces: vehicle lookup, elevation sampling, link analysis, metrics,
// tracing, logging and event publication.
package planning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/route-link-planner/core"
	"github.com/signalsfoundry/route-link-planner/internal/events"
	"github.com/signalsfoundry/route-link-planner/internal/logging"
	"github.com/signalsfoundry/route-link-planner/internal/observability"
	"github.com/signalsfoundry/route-link-planner/model"
)

// VehicleCatalog resolves vehicle IDs to profiles.
type VehicleCatalog interface {
	Get(id string) (model.VehicleProfile, error)
	List() []model.VehicleProfile
}

// MetricsRecorder observes analysis outcomes.
type MetricsRecorder interface {
	ObserveRouteAnalysis(outcome string, distanceKm float64, criticalSegments int)
}

// VehicleRef selects a vehicle either from the catalog by ID or inline.
// An empty ref means an unconstrained vehicle at the default frequency.
type VehicleRef struct {
	ID     string
	Inline *model.VehicleProfile
}

// RouteRequest asks for a full analysis between two points.
type RouteRequest struct {
	Start   model.Coordinate
	End     model.Coordinate
	Vehicle VehicleRef
}

// RoutePlan is the result of PlanRoute.
type RoutePlan struct {
	RequestID string
	Vehicle   model.VehicleProfile
	Policy    string
	Analysis  *core.RouteAnalysisResult
	// Profile is the full-resolution elevation profile that was analysed.
	Profile []model.ElevationSample
	// DisplayProfile drops consecutive samples with equal rounded height.
	DisplayProfile []model.ElevationSample
	// Boundary is the vehicle's range ring around Start, nil if unconstrained.
	Boundary []model.Coordinate
	// EstimatedFlightTime is zero when the vehicle speed is unknown.
	EstimatedFlightTime time.Duration
}

// Service is safe for concurrent use.
type Service struct {
	planner          *core.Planner
	source           core.ElevationSource
	catalog          VehicleCatalog
	metrics          MetricsRecorder
	publisher        events.Publisher
	log              logging.Logger
	defaultFrequency float64
	now              func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetricsRecorder wires analysis metrics.
func WithMetricsRecorder(r MetricsRecorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithPublisher wires an event publisher. Nil keeps the no-op publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDefaultFrequencyGHz sets the frequency applied to vehicles that do not
// specify one.
func WithDefaultFrequencyGHz(f float64) Option {
	return func(s *Service) {
		if f > 0 {
			s.defaultFrequency = f
		}
	}
}

// NewService builds a Service. source is used both by the planner and for
// raw elevation lookups.
func NewService(source core.ElevationSource, catalog VehicleCatalog, plannerOpts []core.PlannerOption, opts ...Option) *Service {
	s := &Service{
		planner:          core.NewPlanner(source, plannerOpts...),
		source:           source,
		catalog:          catalog,
		publisher:        events.Noop(),
		log:              logging.Noop(),
		defaultFrequency: model.DefaultFrequencyGHz,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the configured line-of-sight policy name.
func (s *Service) Policy() string { return s.planner.Analyzer().Policy().Name() }

// ResolveVehicle returns the profile a request refers to with the default
// frequency applied.
func (s *Service) ResolveVehicle(ref VehicleRef) (model.VehicleProfile, error) {
	var v model.VehicleProfile
	switch {
	case ref.ID != "":
		if s.catalog == nil {
			return model.VehicleProfile{}, fmt.Errorf("vehicle %q: no catalog configured", ref.ID)
		}
		found, err := s.catalog.Get(ref.ID)
		if err != nil {
			return model.VehicleProfile{}, err
		}
		v = found
	case ref.Inline != nil:
		v = *ref.Inline
	}
	if v.FrequencyGHz == 0 {
		v.FrequencyGHz = s.defaultFrequency
	}
	if err := core.ValidateVehicleProfile(v); err != nil {
		return model.VehicleProfile{}, err
	}
	return v, nil
}

// PlanRoute resolves the vehicle, samples and analyses the route, and
// publishes a RouteAnalyzed event on success.
func (s *Service) PlanRoute(ctx context.Context, req RouteRequest) (plan *RoutePlan, err error) {
	ctx, reqID := logging.EnsureRequestID(ctx)
	log := logging.FromContext(ctx, s.log)

	ctx, span := observability.StartSpan(ctx, "planning.PlanRoute",
		attribute.String("vehicle.id", req.Vehicle.ID),
		attribute.String("route.start", req.Start.String()),
		attribute.String("route.end", req.End.String()),
	)
	defer func() { observability.EndSpan(span, err) }()

	vehicle, err := s.ResolveVehicle(req.Vehicle)
	if err != nil {
		s.observe(err, nil)
		return nil, err
	}

	sampleCtx, sampleSpan := observability.StartSpan(ctx, "planning.SampleRoute")
	samples, err := s.planner.SampleRoute(sampleCtx, req.Start, req.End, vehicle)
	sampleSpan.SetAttributes(attribute.Int("samples", len(samples)))
	observability.EndSpan(sampleSpan, err)
	if err != nil {
		s.observe(err, nil)
		log.Warn(ctx, "route planning rejected",
			logging.String("start", req.Start.String()),
			logging.String("end", req.End.String()),
			logging.String("vehicle_id", vehicle.ID),
			logging.Err(err),
		)
		return nil, err
	}

	_, analyzeSpan := observability.StartSpan(ctx, "planning.AnalyzeProfile")
	res, err := s.planner.AnalyzeProfile(samples, vehicle)
	observability.EndSpan(analyzeSpan, err)
	if err != nil {
		s.observe(err, nil)
		return nil, err
	}
	s.observe(nil, res)
	span.SetAttributes(
		attribute.Float64("route.distance_km", res.TotalDistanceKm),
		attribute.Int("route.critical_segments", res.CriticalCount()),
	)

	boundary := core.BuildRangeBoundary(req.Start, vehicle.MaxRangeKm)
	plan = &RoutePlan{
		RequestID:      reqID,
		Vehicle:        vehicle,
		Policy:         s.Policy(),
		Analysis:       res,
		Profile:        samples,
		DisplayProfile: core.CollapseElevationProfile(samples),
		Boundary:       boundary,
	}
	if vehicle.SpeedKmh != nil && *vehicle.SpeedKmh > 0 {
		hours := res.TotalDistanceKm / *vehicle.SpeedKmh
		plan.EstimatedFlightTime = time.Duration(hours * float64(time.Hour))
	}

	log.Info(ctx, "route analysed",
		logging.String("vehicle_id", vehicle.ID),
		logging.Float64("distance_km", res.TotalDistanceKm),
		logging.Int("segments", len(res.Segments)),
		logging.Int("critical_segments", res.CriticalCount()),
		logging.String("policy", plan.Policy),
	)
	s.publish(ctx, events.RouteAnalyzed{
		RequestID:        reqID,
		VehicleID:        vehicle.ID,
		Start:            req.Start,
		End:              req.End,
		TotalDistanceKm:  res.TotalDistanceKm,
		Segments:         len(res.Segments),
		CriticalSegments: res.CriticalCount(),
		AnyCritical:      res.AnyCritical,
		Policy:           plan.Policy,
		AnalyzedAt:       s.now().UTC(),
	})
	return plan, nil
}

// AnalyzeProfile classifies a caller-supplied profile. No range gate is
// applied because the caller chose the points.
func (s *Service) AnalyzeProfile(ctx context.Context, samples []model.ElevationSample, ref VehicleRef) (res *core.RouteAnalysisResult, err error) {
	ctx, span := observability.StartSpan(ctx, "planning.AnalyzeProfile",
		attribute.Int("samples", len(samples)),
		attribute.String("vehicle.id", ref.ID),
	)
	defer func() { observability.EndSpan(span, err) }()

	vehicle, err := s.ResolveVehicle(ref)
	if err != nil {
		s.observe(err, nil)
		return nil, err
	}
	res, err = s.planner.AnalyzeProfile(samples, vehicle)
	s.observe(err, res)
	if err != nil {
		logging.FromContext(ctx, s.log).Warn(ctx, "profile analysis rejected", logging.Err(err))
		return nil, err
	}
	return res, nil
}

// RangeBoundary returns the range ring for the referenced vehicle around
// center, or nil when it is unconstrained.
func (s *Service) RangeBoundary(_ context.Context, center model.Coordinate, ref VehicleRef) ([]model.Coordinate, model.VehicleProfile, error) {
	vehicle, err := s.ResolveVehicle(ref)
	if err != nil {
		return nil, model.VehicleProfile{}, err
	}
	ring, err := s.planner.ComputeRangeBoundary(center, vehicle)
	if err != nil {
		return nil, model.VehicleProfile{}, err
	}
	return ring, vehicle, nil
}

// Elevations looks up terrain heights for arbitrary points.
func (s *Service) Elevations(ctx context.Context, points []model.Coordinate) (out []float64, err error) {
	ctx, span := observability.StartSpan(ctx, "planning.Elevations", attribute.Int("points", len(points)))
	defer func() { observability.EndSpan(span, err) }()

	for i, p := range points {
		if err := core.ValidateCoordinate(p); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
	}
	return core.ResolveElevations(ctx, s.source, points)
}

// Vehicles lists the catalog.
func (s *Service) Vehicles() []model.VehicleProfile {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.List()
}

func (s *Service) publish(ctx context.Context, ev events.RouteAnalyzed) {
	if err := s.publisher.PublishRouteAnalyzed(ctx, ev); err != nil {
		logging.FromContext(ctx, s.log).Warn(ctx, "publish RouteAnalyzed failed", logging.Err(err))
	}
}

func (s *Service) observe(err error, res *core.RouteAnalysisResult) {
	if s.metrics == nil {
		return
	}
	if err != nil {
		s.metrics.ObserveRouteAnalysis(Outcome(err), 0, 0)
		return
	}
	outcome := observability.OutcomeOK
	if res.AnyCritical {
		outcome = observability.OutcomeCritical
	}
	s.metrics.ObserveRouteAnalysis(outcome, res.TotalDistanceKm, res.CriticalCount())
}

// Outcome maps an analysis error to its metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, core.ErrRangeViolation):
		return observability.OutcomeRangeViolation
	case errors.Is(err, core.ErrElevationSourceUnavailable):
		return observability.OutcomeUpstreamError
	default:
		return observability.OutcomeInvalid
	}
}
