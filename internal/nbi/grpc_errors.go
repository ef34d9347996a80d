package nbi

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/route-link-planner/core"
	"github.com/signalsfoundry/route-link-planner/internal/nbi/types"
	"github.com/signalsfoundry/route-link-planner/kb"
)

// ToStatusError maps planner errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var rv *core.RangeViolationError
	switch {
	case errors.As(err, &rv):
		return status.Error(codes.OutOfRange,
			fmt.Sprintf("endpoint is %.2f km from start, vehicle range is %.2f km", rv.DistanceKm, rv.MaxRangeKm))

	case errors.Is(err, kb.ErrVehicleNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, types.ErrInvalidMessage),
		errors.Is(err, core.ErrInvalidCoordinate),
		errors.Is(err, core.ErrInvalidVehicleProfile),
		errors.Is(err, core.ErrIncompleteProfile),
		errors.Is(err, kb.ErrInvalidVehicle):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, kb.ErrVehicleExists):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, core.ErrElevationSourceUnavailable):
		return status.Error(codes.Unavailable, err.Error())

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
