package nbi

import (
	"context"

	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/signalsfoundry/route-link-planner/internal/logging"
	"github.com/signalsfoundry/route-link-planner/internal/nbi/types"
	"github.com/signalsfoundry/route-link-planner/internal/planning"
)

// RoutePlannerService implements RoutePlannerServer on top of a
// planning.Service.
type RoutePlannerService struct {
	svc *planning.Service
	log logging.Logger
}

var _ RoutePlannerServer = (*RoutePlannerService)(nil)

// NewRoutePlannerService wires the gRPC surface to svc.
func NewRoutePlannerService(svc *planning.Service, log logging.Logger) *RoutePlannerService {
	if log == nil {
		log = logging.Noop()
	}
	return &RoutePlannerService{svc: svc, log: log}
}

func (s *RoutePlannerService) PlanRoute(ctx context.Context, in *types.PlanRouteRequest) (*types.PlanRouteResponse, error) {
	req, err := ValidatePlanRouteRequest(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	plan, err := s.svc.PlanRoute(ctx, req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return PlanToWire(plan), nil
}

func (s *RoutePlannerService) AnalyzeProfile(ctx context.Context, in *types.AnalyzeProfileRequest) (*types.AnalyzeProfileResponse, error) {
	samples, ref, err := ValidateAnalyzeProfileRequest(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	res, err := s.svc.AnalyzeProfile(ctx, samples, ref)
	if err != nil {
		return nil, ToStatusError(err)
	}
	out := types.AnalysisToWire(res)
	return &out, nil
}

func (s *RoutePlannerService) RangeBoundary(ctx context.Context, in *types.RangeBoundaryRequest) (*types.RangeBoundaryResponse, error) {
	center, ref, err := ValidateRangeBoundaryRequest(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	ring, vehicle, err := s.svc.RangeBoundary(ctx, center, ref)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return &types.RangeBoundaryResponse{
		Vehicle:     vehicle,
		Constrained: vehicle.IsRangeLimited(),
		Ring:        types.RingToWire(ring),
	}, nil
}

func (s *RoutePlannerService) ListVehicles(ctx context.Context, _ *emptypb.Empty) (*types.ListVehiclesResponse, error) {
	vehicles := s.svc.Vehicles()
	if vehicles == nil {
		vehicles = []types.Vehicle{}
	}
	logging.FromContext(ctx, s.log).Debug(ctx, "listed vehicles", logging.Int("count", len(vehicles)))
	return &types.ListVehiclesResponse{Vehicles: vehicles}, nil
}

// PlanToWire converts a planning result to its response message.
func PlanToWire(plan *planning.RoutePlan) *types.PlanRouteResponse {
	resp := &types.PlanRouteResponse{
		RequestID:      plan.RequestID,
		Vehicle:        plan.Vehicle,
		Policy:         plan.Policy,
		Analysis:       types.AnalysisToWire(plan.Analysis),
		Profile:        types.SamplesToWire(plan.Profile),
		DisplayProfile: types.SamplesToWire(plan.DisplayProfile),
	}
	if plan.Boundary != nil {
		resp.Boundary = types.RingToWire(plan.Boundary)
	}
	if plan.EstimatedFlightTime > 0 {
		minutes := plan.EstimatedFlightTime.Minutes()
		resp.EstimatedFlightMinutes = &minutes
	}
	return resp
}
