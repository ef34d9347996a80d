package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/signalsfoundry/route-link-planner/internal/logging"
	"github.com/signalsfoundry/route-link-planner/internal/nbi"
	"github.com/signalsfoundry/route-link-planner/internal/nbi/types"
	"github.com/signalsfoundry/route-link-planner/model"
)

type healthResponse struct {
	Status   string `json:"status"`
	Policy   string `json:"policy"`
	Vehicles int    `json:"vehicles"`
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Policy:   h.svc.Policy(),
		Vehicles: len(h.fleet.List()),
	})
}

// radioAnalysis accepts the same payload as the gRPC AnalyzeProfile call.
func (h *Handlers) radioAnalysis(w http.ResponseWriter, r *http.Request) {
	var req types.AnalyzeProfileRequest
	if !h.decode(w, r, &req) {
		return
	}
	samples, ref, err := nbi.ValidateAnalyzeProfileRequest(&req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.AnalyzeProfile(r.Context(), samples, ref)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.AnalysisToWire(res))
}

func (h *Handlers) elevation(w http.ResponseWriter, r *http.Request) {
	var req types.ElevationRequest
	if !h.decode(w, r, &req) {
		return
	}
	points := make([]model.Coordinate, len(req.Points))
	for i := range req.Points {
		p, err := types.CoordinateFromWire(&req.Points[i], fmt.Sprintf("points[%d]", i))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		points[i] = p
	}
	elevations, err := h.svc.Elevations(r.Context(), points)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := types.ElevationResponse{Elevations: make([]*float64, len(elevations))}
	for i, e := range elevations {
		out.Elevations[i] = types.FloatToWire(e)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) planRoute(w http.ResponseWriter, r *http.Request) {
	var req types.PlanRouteRequest
	if !h.decode(w, r, &req) {
		return
	}
	routeReq, err := nbi.ValidatePlanRouteRequest(&req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	plan, err := h.svc.PlanRoute(r.Context(), routeReq)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nbi.PlanToWire(plan))
}

func (h *Handlers) rangeBoundary(w http.ResponseWriter, r *http.Request) {
	var req types.RangeBoundaryRequest
	if !h.decode(w, r, &req) {
		return
	}
	center, ref, err := nbi.ValidateRangeBoundaryRequest(&req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ring, vehicle, err := h.svc.RangeBoundary(r.Context(), center, ref)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.RangeBoundaryResponse{
		Vehicle:     vehicle,
		Constrained: vehicle.IsRangeLimited(),
		Ring:        types.RingToWire(ring),
	})
}

func (h *Handlers) listVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles := h.fleet.List()
	if vehicles == nil {
		vehicles = []model.VehicleProfile{}
	}
	writeJSON(w, http.StatusOK, types.ListVehiclesResponse{Vehicles: vehicles})
}

//
// /api/drones
//

func (h *Handlers) getDrone(w http.ResponseWriter, r *http.Request) {
	v, err := h.fleet.Get(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// createDrone assigns a fresh id when the body carries none.
func (h *Handlers) createDrone(w http.ResponseWriter, r *http.Request) {
	var v model.VehicleProfile
	if !h.decode(w, r, &v) {
		return
	}
	v.ID = strings.TrimSpace(v.ID)
	if v.ID == "" {
		v.ID = h.newID()
	}
	if err := h.fleet.Add(v); err != nil {
		h.writeError(w, r, err)
		return
	}
	logging.FromContext(r.Context(), h.log).Info(r.Context(), "vehicle added",
		logging.String("vehicle_id", v.ID), logging.String("name", v.Name))
	w.Header().Set("Location", "/api/drones/"+v.ID)
	writeJSON(w, http.StatusCreated, v)
}

// updateDrone replaces an existing vehicle. The path id wins; a conflicting
// body id is rejected.
func (h *Handlers) updateDrone(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var v model.VehicleProfile
	if !h.decode(w, r, &v) {
		return
	}
	if body := strings.TrimSpace(v.ID); body != "" && body != id {
		h.writeError(w, r, fmt.Errorf("%w: body id %q does not match path id %q", types.ErrInvalidMessage, body, id))
		return
	}
	v.ID = id
	if _, err := h.fleet.Get(id); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.fleet.Upsert(v); err != nil {
		h.writeError(w, r, err)
		return
	}
	logging.FromContext(r.Context(), h.log).Info(r.Context(), "vehicle updated", logging.String("vehicle_id", id))
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) deleteDrone(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.fleet.Remove(id); err != nil {
		h.writeError(w, r, err)
		return
	}
	logging.FromContext(r.Context(), h.log).Info(r.Context(), "vehicle removed", logging.String("vehicle_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into dst and writes a 400 on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
				Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				Code:  "too_large",
			})
		case errors.Is(err, io.EOF):
			h.writeError(w, r, fmt.Errorf("%w: empty body", types.ErrInvalidMessage))
		default:
			h.writeError(w, r, fmt.Errorf("%w: %v", types.ErrInvalidMessage, err))
		}
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
