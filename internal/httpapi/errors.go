package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/signalsfoundry/route-link-planner/core"
	"github.com/signalsfoundry/route-link-planner/internal/logging"
	"github.com/signalsfoundry/route-link-planner/internal/nbi/types"
	"github.com/signalsfoundry/route-link-planner/kb"
)

type errorBody struct {
	Error      string   `json:"error"`
	Code       string   `json:"code"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
	MaxRangeKm *float64 `json:"maxRangeKm,omitempty"`
}

// statusFor maps planner and catalog errors to an HTTP status and a short
// machine-readable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrRangeViolation):
		return http.StatusUnprocessableEntity, "range_violation"
	case errors.Is(err, kb.ErrVehicleNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, kb.ErrVehicleExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, types.ErrInvalidMessage),
		errors.Is(err, core.ErrInvalidCoordinate),
		errors.Is(err, core.ErrInvalidVehicleProfile),
		errors.Is(err, core.ErrIncompleteProfile),
		errors.Is(err, kb.ErrInvalidVehicle):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, core.ErrElevationSourceUnavailable):
		return http.StatusBadGateway, "elevation_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	body := errorBody{Error: err.Error(), Code: code}

	var rv *core.RangeViolationError
	if errors.As(err, &rv) {
		d, m := rv.DistanceKm, rv.MaxRangeKm
		body.DistanceKm, body.MaxRangeKm = &d, &m
	}

	ctx := r.Context()
	log := logging.FromContext(ctx, h.log)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logging.Int("status", status), logging.Err(err))
	} else {
		log.Debug(ctx, "request rejected", logging.Int("status", status), logging.Err(err))
	}
	writeJSON(w, status, body)
}
