// Package types defines the wire messages of the planner API and the
// mapping between them and the domain model. The same messages are carried
// by the gRPC json codec and the HTTP API.
package types

import (
	"errors"
	"fmt"
	"math"

	"github.com/signalsfoundry/route-link-planner/core"
	"github.com/signalsfoundry/route-link-planner/model"
)

// ErrInvalidMessage marks structurally invalid requests.
var ErrInvalidMessage = errors.New("invalid request")

//
// Shared building blocks.
//

// Coordinate is a WGS84 point. Both fields are required.
type Coordinate struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// ProfilePoint is a caller-supplied profile sample. Lat and Lng are
// required; a null elevation marks a missing lookup.
type ProfilePoint struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Elevation *float64 `json:"elevation"`
}

// ElevationPoint is a coordinate with an optional height in metres, as
// returned by the planner. A null elevation marks a missing lookup.
type ElevationPoint struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Elevation *float64 `json:"elevation"`
}

// Vehicle is the wire form of model.VehicleProfile.
type Vehicle = model.VehicleProfile

// Segment is one analysed route interval.
type Segment struct {
	From                ElevationPoint `json:"from"`
	To                  ElevationPoint `json:"to"`
	DistanceKm          float64        `json:"distanceKm"`
	DistanceFromStartKm float64        `json:"distanceFromStartKm"`
	HasLOS              bool           `json:"hasLOS"`
	SignalQuality       float64        `json:"signalQuality"`
	IsCritical          bool           `json:"isCritical"`
	Status              string         `json:"status"`
}

// Analysis is the aggregated result of a route analysis.
type Analysis struct {
	Segments        []Segment `json:"analysis"`
	TotalDistanceKm float64   `json:"totalDistanceKm"`
	AnyCritical     bool      `json:"anyCritical"`
	CriticalCount   int       `json:"criticalCount"`
}

//
// RPC messages.
//

// PlanRouteRequest selects a vehicle by VehicleID or inline Vehicle; when
// both are empty the vehicle is unconstrained.
type PlanRouteRequest struct {
	Start     *Coordinate `json:"start"`
	End       *Coordinate `json:"end"`
	VehicleID string      `json:"vehicleId,omitempty"`
	Vehicle   *Vehicle    `json:"vehicle,omitempty"`
}

type PlanRouteResponse struct {
	RequestID              string           `json:"requestId"`
	Vehicle                Vehicle          `json:"vehicle"`
	Policy                 string           `json:"policy"`
	Analysis               Analysis         `json:"result"`
	Profile                []ElevationPoint `json:"profile"`
	DisplayProfile         []ElevationPoint `json:"displayProfile"`
	Boundary               []ElevationPoint `json:"boundary,omitempty"`
	EstimatedFlightMinutes *float64         `json:"estimatedFlightMinutes,omitempty"`
}

// AnalyzeProfileRequest mirrors the original radio-analysis payload:
// points with elevations, an optional range in km and a frequency in GHz.
type AnalyzeProfileRequest struct {
	Points     []ProfilePoint `json:"points"`
	DroneRange *float64       `json:"droneRange"`
	Frequency  float64        `json:"frequency"`
	VehicleID  string         `json:"vehicleId,omitempty"`
}

type AnalyzeProfileResponse = Analysis

type RangeBoundaryRequest struct {
	Center    *Coordinate `json:"center"`
	VehicleID string      `json:"vehicleId,omitempty"`
	Vehicle   *Vehicle    `json:"vehicle,omitempty"`
}

// RangeBoundaryResponse carries a closed ring, empty when the vehicle is
// unconstrained.
type RangeBoundaryResponse struct {
	Vehicle     Vehicle          `json:"vehicle"`
	Constrained bool             `json:"constrained"`
	Ring        []ElevationPoint `json:"ring"`
}

type ListVehiclesResponse struct {
	Vehicles []Vehicle `json:"vehicles"`
}

type ElevationRequest struct {
	Points []Coordinate `json:"points"`
}

// ElevationResponse holds one entry per requested point; null when the
// source has no value.
type ElevationResponse struct {
	Elevations []*float64 `json:"elevations"`
}

//
// Mapping functions.
//

// CoordinateFromWire validates presence of both fields. Range checks are
// left to the engine so they surface as core.ErrInvalidCoordinate.
func CoordinateFromWire(c *Coordinate, field string) (model.Coordinate, error) {
	if c == nil {
		return model.Coordinate{}, fmt.Errorf("%w: %s is required", ErrInvalidMessage, field)
	}
	if c.Lat == nil || c.Lng == nil {
		return model.Coordinate{}, fmt.Errorf("%w: %s.lat and %s.lng are required", ErrInvalidMessage, field, field)
	}
	return model.Coordinate{Lat: *c.Lat, Lng: *c.Lng}, nil
}

// CoordinateToWire is the inverse of CoordinateFromWire.
func CoordinateToWire(c model.Coordinate) *Coordinate {
	lat, lng := c.Lat, c.Lng
	return &Coordinate{Lat: &lat, Lng: &lng}
}

// SampleFromWire maps a null elevation to NaN. A missing lat or lng is an
// error; it is never read as zero.
func SampleFromWire(p ProfilePoint, field string) (model.ElevationSample, error) {
	if p.Lat == nil || p.Lng == nil {
		return model.ElevationSample{}, fmt.Errorf("%w: %s.lat and %s.lng are required", ErrInvalidMessage, field, field)
	}
	e := math.NaN()
	if p.Elevation != nil {
		e = *p.Elevation
	}
	return model.ElevationSample{Coordinate: model.Coordinate{Lat: *p.Lat, Lng: *p.Lng}, ElevationM: e}, nil
}

// SampleToProfilePoint builds a request point from a sample. NaN elevations
// become null.
func SampleToProfilePoint(s model.ElevationSample) ProfilePoint {
	lat, lng := s.Lat, s.Lng
	return ProfilePoint{Lat: &lat, Lng: &lng, Elevation: FloatToWire(s.ElevationM)}
}

// SampleToWire maps NaN and infinities to a null elevation.
func SampleToWire(s model.ElevationSample) ElevationPoint {
	return ElevationPoint{Lat: s.Lat, Lng: s.Lng, Elevation: FloatToWire(s.ElevationM)}
}

// FloatToWire returns nil for values JSON cannot carry.
func FloatToWire(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func SamplesFromWire(points []ProfilePoint) ([]model.ElevationSample, error) {
	out := make([]model.ElevationSample, len(points))
	for i, p := range points {
		s, err := SampleFromWire(p, fmt.Sprintf("points[%d]", i))
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func SamplesToWire(samples []model.ElevationSample) []ElevationPoint {
	out := make([]ElevationPoint, len(samples))
	for i, s := range samples {
		out[i] = SampleToWire(s)
	}
	return out
}

// RingToWire emits ring coordinates with no elevation.
func RingToWire(ring []model.Coordinate) []ElevationPoint {
	out := make([]ElevationPoint, len(ring))
	for i, c := range ring {
		out[i] = ElevationPoint{Lat: c.Lat, Lng: c.Lng}
	}
	return out
}

// AnalysisToWire converts an engine result.
func AnalysisToWire(res *core.RouteAnalysisResult) Analysis {
	if res == nil {
		return Analysis{Segments: []Segment{}}
	}
	segs := make([]Segment, len(res.Segments))
	for i, s := range res.Segments {
		segs[i] = Segment{
			From:                SampleToWire(s.From),
			To:                  SampleToWire(s.To),
			DistanceKm:          s.DistanceKm,
			DistanceFromStartKm: s.DistanceFromStartKm,
			HasLOS:              s.HasLineOfSight,
			SignalQuality:       s.SignalQuality,
			IsCritical:          s.IsCritical,
			Status:              string(s.Status),
		}
	}
	return Analysis{
		Segments:        segs,
		TotalDistanceKm: res.TotalDistanceKm,
		AnyCritical:     res.AnyCritical,
		CriticalCount:   res.CriticalCount(),
	}
}

// ProfileVehicleFromWire builds the inline vehicle of an
// AnalyzeProfileRequest. A zero frequency is left for the service default.
func ProfileVehicleFromWire(req *AnalyzeProfileRequest) *model.VehicleProfile {
	return &model.VehicleProfile{MaxRangeKm: req.DroneRange, FrequencyGHz: req.Frequency}
}
