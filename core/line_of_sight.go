package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/signalsfoundry/route-link-planner/model"
)

const (
	// fresnelConstant gives the first Fresnel zone radius in metres for a
	// distance in km and a frequency in GHz: r = 8.656 * sqrt(d / f).
	fresnelConstant = 8.656

	// DefaultMaxGrade is the terrain grade above which the slope heuristic
	// treats a segment as blocked.
	DefaultMaxGrade = 0.1
)

// Policy names accepted by LineOfSightPolicyByName.
const (
	PolicyFresnel = "fresnel"
	PolicySlope   = "slope"
)

// SampledRoute is an elevation profile together with the per-segment and
// cumulative distances derived from it.
type SampledRoute struct {
	Samples []model.ElevationSample
	// SegmentKm[i] is the length of the segment between sample i and i+1.
	SegmentKm []float64
	// FromStartKm[i] is the distance from the first sample to sample i,
	// accumulated along the segments.
	FromStartKm []float64
}

// NewSampledRoute measures the given samples. The slice is not copied.
func NewSampledRoute(samples []model.ElevationSample) SampledRoute {
	r := SampledRoute{Samples: samples}
	if len(samples) == 0 {
		return r
	}
	r.SegmentKm = make([]float64, len(samples)-1)
	r.FromStartKm = make([]float64, len(samples))
	for i := 1; i < len(samples); i++ {
		d := DistanceKm(samples[i-1].Coordinate, samples[i].Coordinate)
		r.SegmentKm[i-1] = d
		r.FromStartKm[i] = r.FromStartKm[i-1] + d
	}
	return r
}

// TotalKm is the accumulated route length.
func (r SampledRoute) TotalKm() float64 {
	if len(r.FromStartKm) == 0 {
		return 0
	}
	return r.FromStartKm[len(r.FromStartKm)-1]
}

// LineOfSightPolicy decides, for every segment of a sampled route, whether
// the radio path is clear of terrain.
type LineOfSightPolicy interface {
	// Name identifies the policy in logs and configuration.
	Name() string
	// SegmentLineOfSight returns len(route.Samples)-1 flags.
	SegmentLineOfSight(route SampledRoute, frequencyGHz float64) ([]bool, error)
}

// LineOfSightPolicyByName resolves a configured policy name. An empty name
// selects the Fresnel-zone heuristic.
func LineOfSightPolicyByName(name string) (LineOfSightPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyFresnel, "fresnel_zone":
		return FresnelZoneHeuristic{}, nil
	case PolicySlope, "grade":
		return SlopeHeuristic{MaxGrade: DefaultMaxGrade}, nil
	default:
		return nil, fmt.Errorf("unknown line-of-sight policy %q", name)
	}
}

// SlopeHeuristic is the adjacent-pair approximation: a segment is clear
// when the terrain grade between its endpoints stays under MaxGrade. It
// ignores frequency and needs no start/end baseline.
type SlopeHeuristic struct {
	MaxGrade float64
}

func (SlopeHeuristic) Name() string { return PolicySlope }

func (h SlopeHeuristic) SegmentLineOfSight(route SampledRoute, _ float64) ([]bool, error) {
	if len(route.Samples) < 2 {
		return nil, fmt.Errorf("%w: %d samples", ErrIncompleteProfile, len(route.Samples))
	}
	maxGrade := h.MaxGrade
	if maxGrade <= 0 {
		maxGrade = DefaultMaxGrade
	}

	out := make([]bool, len(route.Samples)-1)
	for i := range out {
		a, b := route.Samples[i].ElevationM, route.Samples[i+1].ElevationM
		if math.IsNaN(a) || math.IsNaN(b) {
			continue // fail closed
		}
		runM := route.SegmentKm[i] * 1000
		if runM == 0 {
			out[i] = true
			continue
		}
		out[i] = math.Abs(a-b)/runM < maxGrade
	}
	return out, nil
}

// FresnelZoneHeuristic compares each sample against a straight baseline
// drawn between the route's start and end elevations. A sample obstructs
// the link when it rises above the baseline by more than the first Fresnel
// zone radius at its distance from the start; a segment is clear when
// neither of its endpoints obstructs.
type FresnelZoneHeuristic struct{}

func (FresnelZoneHeuristic) Name() string { return PolicyFresnel }

func (FresnelZoneHeuristic) SegmentLineOfSight(route SampledRoute, frequencyGHz float64) ([]bool, error) {
	k := len(route.Samples)
	if k < 2 {
		return nil, fmt.Errorf("%w: %d samples", ErrIncompleteProfile, k)
	}
	if frequencyGHz <= 0 {
		return nil, fmt.Errorf("%w: frequency %.3f GHz", ErrInvalidVehicleProfile, frequencyGHz)
	}
	startElev := route.Samples[0].ElevationM
	endElev := route.Samples[k-1].ElevationM
	if math.IsNaN(startElev) || math.IsNaN(endElev) {
		return nil, fmt.Errorf("%w: start or end elevation missing", ErrIncompleteProfile)
	}

	total := route.TotalKm()
	obstructed := make([]bool, k)
	for i, s := range route.Samples {
		if math.IsNaN(s.ElevationM) {
			obstructed[i] = true
			continue
		}
		fromStart := route.FromStartKm[i]
		fraction := 0.0
		if total > 0 {
			fraction = fromStart / total
		}
		expected := startElev + (endElev-startElev)*fraction
		obstructed[i] = s.ElevationM-expected > FresnelClearanceM(fromStart, frequencyGHz)
	}

	out := make([]bool, k-1)
	for i := range out {
		out[i] = !obstructed[i] && !obstructed[i+1]
	}
	return out, nil
}

// FresnelClearanceM returns the first Fresnel zone radius in metres used as
// the required terrain clearance at distanceKm from the transmitter.
func FresnelClearanceM(distanceKm, frequencyGHz float64) float64 {
	if distanceKm <= 0 || frequencyGHz <= 0 {
		return 0
	}
	return fresnelConstant * math.Sqrt(distanceKm/frequencyGHz)
}
