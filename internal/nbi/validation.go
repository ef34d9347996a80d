package nbi

import (
	"fmt"
	"strings"

	"github.com/signalsfoundry/route-link-planner/internal/nbi/types"
	"github.com/signalsfoundry/route-link-planner/internal/planning"
	"github.com/signalsfoundry/route-link-planner/model"
)

// maxProfilePoints bounds AnalyzeProfile payloads.
const maxProfilePoints = 10000

func vehicleRef(id string, inline *types.Vehicle) (planning.VehicleRef, error) {
	id = strings.TrimSpace(id)
	if id != "" && inline != nil {
		return planning.VehicleRef{}, fmt.Errorf("%w: vehicleId and vehicle are mutually exclusive", types.ErrInvalidMessage)
	}
	return planning.VehicleRef{ID: id, Inline: inline}, nil
}

// ValidatePlanRouteRequest checks structure and converts to a planning request.
func ValidatePlanRouteRequest(req *types.PlanRouteRequest) (planning.RouteRequest, error) {
	if req == nil {
		return planning.RouteRequest{}, fmt.Errorf("%w: request is required", types.ErrInvalidMessage)
	}
	start, err := types.CoordinateFromWire(req.Start, "start")
	if err != nil {
		return planning.RouteRequest{}, err
	}
	end, err := types.CoordinateFromWire(req.End, "end")
	if err != nil {
		return planning.RouteRequest{}, err
	}
	ref, err := vehicleRef(req.VehicleID, req.Vehicle)
	if err != nil {
		return planning.RouteRequest{}, err
	}
	return planning.RouteRequest{Start: start, End: end, Vehicle: ref}, nil
}

// ValidateAnalyzeProfileRequest returns the samples and vehicle reference.
// droneRange/frequency describe an inline vehicle unless vehicleId is set.
func ValidateAnalyzeProfileRequest(req *types.AnalyzeProfileRequest) ([]model.ElevationSample, planning.VehicleRef, error) {
	if req == nil {
		return nil, planning.VehicleRef{}, fmt.Errorf("%w: request is required", types.ErrInvalidMessage)
	}
	if len(req.Points) > maxProfilePoints {
		return nil, planning.VehicleRef{}, fmt.Errorf("%w: at most %d points are accepted, got %d",
			types.ErrInvalidMessage, maxProfilePoints, len(req.Points))
	}
	var inline *types.Vehicle
	if strings.TrimSpace(req.VehicleID) == "" {
		inline = types.ProfileVehicleFromWire(req)
	} else if req.DroneRange != nil || req.Frequency != 0 {
		return nil, planning.VehicleRef{}, fmt.Errorf("%w: vehicleId and droneRange/frequency are mutually exclusive", types.ErrInvalidMessage)
	}
	ref, err := vehicleRef(req.VehicleID, inline)
	if err != nil {
		return nil, planning.VehicleRef{}, err
	}
	samples, err := types.SamplesFromWire(req.Points)
	if err != nil {
		return nil, planning.VehicleRef{}, err
	}
	return samples, ref, nil
}

// ValidateRangeBoundaryRequest returns the center and vehicle reference.
func ValidateRangeBoundaryRequest(req *types.RangeBoundaryRequest) (model.Coordinate, planning.VehicleRef, error) {
	if req == nil {
		return model.Coordinate{}, planning.VehicleRef{}, fmt.Errorf("%w: request is required", types.ErrInvalidMessage)
	}
	center, err := types.CoordinateFromWire(req.Center, "center")
	if err != nil {
		return model.Coordinate{}, planning.VehicleRef{}, err
	}
	ref, err := vehicleRef(req.VehicleID, req.Vehicle)
	if err != nil {
		return model.Coordinate{}, planning.VehicleRef{}, err
	}
	return center, ref, nil
}
