package core

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/route-link-planner/model"
)

// moscowEastRoute returns a start in Moscow and an end 5 km due east on the
// same parallel.
func moscowEastRoute() (model.Coordinate, model.Coordinate) {
	dLng := toDegrees(5 / (EarthRadiusKm * math.Cos(toRadians(moscow.Lat))))
	return moscow, model.Coordinate{Lat: moscow.Lat, Lng: moscow.Lng + dLng}
}

func flatProfile(points []model.Coordinate, elevation float64) []model.ElevationSample {
	out := make([]model.ElevationSample, len(points))
	for i, p := range points {
		out[i] = model.ElevationSample{Coordinate: p, ElevationM: elevation}
	}
	return out
}

// meridianProfile places samples due north of (55, 37) at the given
// distances, so cumulative distances are exact.
func meridianProfile(distancesKm []float64, elevations []float64) []model.ElevationSample {
	kmPerDeg := EarthRadiusKm * math.Pi / 180
	out := make([]model.ElevationSample, len(distancesKm))
	for i, d := range distancesKm {
		out[i] = model.ElevationSample{
			Coordinate: model.Coordinate{Lat: 55 + d/kmPerDeg, Lng: 37},
			ElevationM: elevations[i],
		}
	}
	return out
}

func TestAnalyzeSegmentsFlatMoscowRoute(t *testing.T) {
	start, end := moscowEastRoute()
	samples := flatProfile(BuildSampleCoordinates(start, end), 150)

	analyzer := NewLinkAnalyzer(DefaultAnalyzerConfig())
	segments, err := analyzer.AnalyzeSegments(samples, model.VehicleProfile{MaxRangeKm: model.Float64Ptr(10)})
	if err != nil {
		t.Fatalf("AnalyzeSegments: %v", err)
	}
	if len(segments) != len(samples)-1 {
		t.Fatalf("segments = %d, want %d", len(segments), len(samples)-1)
	}

	prev := math.Inf(1)
	for i, s := range segments {
		if !s.HasLineOfSight {
			t.Fatalf("segment %d: HasLineOfSight = false on flat terrain", i)
		}
		if s.SignalQuality <= CriticalQualityThreshold {
			t.Fatalf("segment %d: SignalQuality = %v, want > %v", i, s.SignalQuality, CriticalQualityThreshold)
		}
		if s.SignalQuality >= prev {
			t.Fatalf("segment %d: SignalQuality %v not decreasing (prev %v)", i, s.SignalQuality, prev)
		}
		if s.IsCritical {
			t.Fatalf("segment %d unexpectedly critical", i)
		}
		prev = s.SignalQuality
	}

	res := Aggregate(segments)
	if res.AnyCritical {
		t.Fatalf("AnyCritical = true, want false")
	}
	if math.Abs(res.TotalDistanceKm-5) > 0.01 {
		t.Fatalf("TotalDistanceKm = %v, want ~5", res.TotalDistanceKm)
	}
}

func TestAnalyzeSegmentsFresnelObstruction(t *testing.T) {
	// The midpoint sits 12.8 km from the start, where the 2.4 GHz
	// clearance is about 20 m, and rises 500 m above the baseline.
	samples := meridianProfile([]float64{0, 12.8, 25.6}, []float64{100, 600, 100})
	clearance := FresnelClearanceM(12.8, model.DefaultFrequencyGHz)
	if clearance < 19 || clearance > 21 {
		t.Fatalf("clearance = %v, want ~20 m", clearance)
	}

	analyzer := NewLinkAnalyzer(DefaultAnalyzerConfig())
	segments, err := analyzer.AnalyzeSegments(samples, model.VehicleProfile{MaxRangeKm: model.Float64Ptr(100)})
	if err != nil {
		t.Fatalf("AnalyzeSegments: %v", err)
	}
	for i, s := range segments {
		if s.HasLineOfSight {
			t.Fatalf("segment %d touching the ridge has LoS", i)
		}
		if !s.IsCritical || s.Status != SegmentCritical {
			t.Fatalf("segment %d: IsCritical=%v Status=%v, want critical", i, s.IsCritical, s.Status)
		}
	}
	if !Aggregate(segments).AnyCritical {
		t.Fatalf("AnyCritical = false, want true")
	}
}

func TestFresnelOnlyBlocksSegmentsTouchingObstruction(t *testing.T) {
	samples := meridianProfile(
		[]float64{0, 1, 2, 3, 4},
		[]float64{100, 100, 100, 300, 100},
	)
	analyzer := NewLinkAnalyzer(DefaultAnalyzerConfig())
	segments, err := analyzer.AnalyzeSegments(samples, model.VehicleProfile{})
	if err != nil {
		t.Fatalf("AnalyzeSegments: %v", err)
	}
	want := []bool{true, true, false, false}
	for i, s := range segments {
		if s.HasLineOfSight != want[i] {
			t.Fatalf("segment %d LoS = %v, want %v", i, s.HasLineOfSight, want[i])
		}
	}
}

func TestFresnelBaselineFollowsSlopedRoute(t *testing.T) {
	// Terrain rising evenly by 110 m per km stays on the baseline.
	samples := meridianProfile(
		[]float64{0, 1, 2, 3, 4},
		[]float64{100, 210, 320, 430, 540},
	)
	los, err := FresnelZoneHeuristic{}.SegmentLineOfSight(NewSampledRoute(samples), 2.4)
	if err != nil {
		t.Fatalf("SegmentLineOfSight: %v", err)
	}
	for i, ok := range los {
		if !ok {
			t.Fatalf("segment %d blocked on an even slope", i)
		}
	}

	// The slope heuristic blocks the same route: an 11% grade.
	slope, err := SlopeHeuristic{MaxGrade: DefaultMaxGrade}.SegmentLineOfSight(NewSampledRoute(samples), 2.4)
	if err != nil {
		t.Fatalf("SlopeHeuristic: %v", err)
	}
	for i, ok := range slope {
		if ok {
			t.Fatalf("slope heuristic segment %d has LoS at 10%% grade", i)
		}
	}
}

func TestSlopeHeuristic(t *testing.T) {
	samples := meridianProfile(
		[]float64{0, 1, 1, 2},
		[]float64{100, 150, 150, 400},
	)
	los, err := SlopeHeuristic{}.SegmentLineOfSight(NewSampledRoute(samples), 0)
	if err != nil {
		t.Fatalf("SegmentLineOfSight: %v", err)
	}
	want := []bool{true, true, false}
	for i := range want {
		if los[i] != want[i] {
			t.Fatalf("segment %d LoS = %v, want %v", i, los[i], want[i])
		}
	}
}

func TestFresnelClearanceShrinksWithFrequency(t *testing.T) {
	low := FresnelClearanceM(5, 0.9)
	mid := FresnelClearanceM(5, 2.4)
	high := FresnelClearanceM(5, 5.8)
	if !(low > mid && mid > high) {
		t.Fatalf("clearance not decreasing with frequency: %v, %v, %v", low, mid, high)
	}
	if FresnelClearanceM(0, 2.4) != 0 {
		t.Fatalf("clearance at the transmitter must be zero")
	}
}

func TestSignalQualityMonotonic(t *testing.T) {
	prev := 2.0
	for d := 0.0; d <= 25; d += 0.25 {
		q := SignalQuality(d, 10)
		if q < 0 || q > 1 {
			t.Fatalf("SignalQuality(%v) = %v outside [0,1]", d, q)
		}
		if q > prev {
			t.Fatalf("SignalQuality(%v) = %v increased from %v", d, q, prev)
		}
		prev = q
	}
	if q := SignalQuality(0, 10); q != 1 {
		t.Fatalf("SignalQuality(0) = %v, want 1", q)
	}
	if q := SignalQuality(5, 10); q != 0.25 {
		t.Fatalf("SignalQuality(5, 10) = %v, want 0.25", q)
	}
	if q := SignalQuality(12, 10); q != 0 {
		t.Fatalf("SignalQuality beyond ceiling = %v, want 0", q)
	}
}

func TestAnalyzeSegmentsUnrangedCeiling(t *testing.T) {
	samples := meridianProfile([]float64{0, 2, 4, 6, 8, 10}, []float64{50, 50, 50, 50, 50, 50})
	unranged := model.VehicleProfile{}

	saturated := NewLinkAnalyzer(DefaultAnalyzerConfig())
	segs, err := saturated.AnalyzeSegments(samples, unranged)
	if err != nil {
		t.Fatalf("AnalyzeSegments: %v", err)
	}
	for i, s := range segs {
		if s.SignalQuality < 0.98 || s.Status != SegmentGood {
			t.Fatalf("segment %d quality = %v status %v with 1000 km ceiling", i, s.SignalQuality, s.Status)
		}
	}

	routeLength := NewLinkAnalyzer(AnalyzerConfig{UnrangedCeilingKm: 0})
	segs, err = routeLength.AnalyzeSegments(samples, unranged)
	if err != nil {
		t.Fatalf("AnalyzeSegments: %v", err)
	}
	// Last segment starts at 8 of 10 km: (1-0.8)^2 = 0.04.
	last := segs[len(segs)-1]
	if math.Abs(last.SignalQuality-0.04) > 1e-3 || !last.IsCritical {
		t.Fatalf("last segment quality = %v critical=%v, want 0.04 critical", last.SignalQuality, last.IsCritical)
	}
	// Third segment starts at 4 km: (0.6)^2 = 0.36, degraded but not critical.
	if s := segs[2]; s.Status != SegmentDegraded || s.IsCritical {
		t.Fatalf("segment 2 status = %v critical=%v, want degraded", s.Status, s.IsCritical)
	}
}

func TestAnalyzeSegmentsMissingElevationFailsClosed(t *testing.T) {
	samples := meridianProfile([]float64{0, 1, 2, 3}, []float64{100, math.NaN(), 100, 100})
	analyzer := NewLinkAnalyzer(DefaultAnalyzerConfig())
	segs, err := analyzer.AnalyzeSegments(samples, model.VehicleProfile{})
	if err != nil {
		t.Fatalf("AnalyzeSegments: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("segments = %d, want 3", len(segs))
	}
	if segs[0].HasLineOfSight || segs[1].HasLineOfSight || !segs[0].IsCritical || !segs[1].IsCritical {
		t.Fatalf("segments touching the missing sample must be critical: %+v", segs[:2])
	}
	if !segs[2].HasLineOfSight {
		t.Fatalf("segment 2 should be clear")
	}

	slope := NewLinkAnalyzer(AnalyzerConfig{Policy: SlopeHeuristic{}})
	segs, err = slope.AnalyzeSegments(samples, model.VehicleProfile{})
	if err != nil {
		t.Fatalf("slope AnalyzeSegments: %v", err)
	}
	if segs[0].HasLineOfSight || segs[1].HasLineOfSight {
		t.Fatalf("slope policy must fail closed on missing elevation")
	}
}

func TestAnalyzeSegmentsErrors(t *testing.T) {
	analyzer := NewLinkAnalyzer(DefaultAnalyzerConfig())

	if _, err := analyzer.AnalyzeSegments(samplesWith(100), model.VehicleProfile{}); !errors.Is(err, ErrIncompleteProfile) {
		t.Fatalf("single sample err = %v, want ErrIncompleteProfile", err)
	}

	endpointMissing := meridianProfile([]float64{0, 1}, []float64{math.NaN(), 10})
	if _, err := analyzer.AnalyzeSegments(endpointMissing, model.VehicleProfile{}); !errors.Is(err, ErrIncompleteProfile) {
		t.Fatalf("missing start elevation err = %v, want ErrIncompleteProfile", err)
	}

	bad := []model.VehicleProfile{
		{MaxRangeKm: model.Float64Ptr(0)},
		{MaxRangeKm: model.Float64Ptr(-3)},
		{FrequencyGHz: -2.4},
		{FrequencyGHz: math.NaN()},
	}
	for _, v := range bad {
		if _, err := analyzer.AnalyzeSegments(samplesWith(1, 2), v); !errors.Is(err, ErrInvalidVehicleProfile) {
			t.Fatalf("profile %+v err = %v, want ErrInvalidVehicleProfile", v, err)
		}
	}

	invalid := samplesWith(1, 2)
	invalid[1].Lat = 91
	if _, err := analyzer.AnalyzeSegments(invalid, model.VehicleProfile{}); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("invalid sample err = %v, want ErrInvalidCoordinate", err)
	}
}

func TestCriticalInvariant(t *testing.T) {
	samples := meridianProfile(
		[]float64{0, 1, 2, 3, 4, 5, 6, 7},
		[]float64{100, 110, 400, 90, 100, 100, 250, 120},
	)
	for _, policy := range []LineOfSightPolicy{FresnelZoneHeuristic{}, SlopeHeuristic{}} {
		analyzer := NewLinkAnalyzer(AnalyzerConfig{Policy: policy})
		segs, err := analyzer.AnalyzeSegments(samples, model.VehicleProfile{MaxRangeKm: model.Float64Ptr(8)})
		if err != nil {
			t.Fatalf("%s: %v", policy.Name(), err)
		}
		for i, s := range segs {
			want := s.SignalQuality < CriticalQualityThreshold || !s.HasLineOfSight
			if s.IsCritical != want {
				t.Fatalf("%s segment %d: IsCritical = %v, want %v", policy.Name(), i, s.IsCritical, want)
			}
		}
	}
}

func TestLineOfSightPolicyByName(t *testing.T) {
	for name, want := range map[string]string{
		"":        PolicyFresnel,
		"Fresnel": PolicyFresnel,
		"slope":   PolicySlope,
		" grade ": PolicySlope,
	} {
		p, err := LineOfSightPolicyByName(name)
		if err != nil {
			t.Fatalf("LineOfSightPolicyByName(%q): %v", name, err)
		}
		if p.Name() != want {
			t.Fatalf("LineOfSightPolicyByName(%q) = %s, want %s", name, p.Name(), want)
		}
	}
	if _, err := LineOfSightPolicyByName("raytrace"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
