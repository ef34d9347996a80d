package core

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/route-link-planner/model"
)

var moscow = model.Coordinate{Lat: 55.7558, Lng: 37.6173}

func TestDistanceKmSymmetricAndZero(t *testing.T) {
	pairs := [][2]model.Coordinate{
		{moscow, {Lat: 59.9343, Lng: 30.3351}},
		{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}},
		{{Lat: -33.8688, Lng: 151.2093}, {Lat: 51.5074, Lng: -0.1278}},
		{{Lat: 89.9, Lng: -179.9}, {Lat: -89.9, Lng: 179.9}},
	}
	for _, p := range pairs {
		ab := DistanceKm(p[0], p[1])
		ba := DistanceKm(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("DistanceKm(%v,%v) = %v, reverse = %v", p[0], p[1], ab, ba)
		}
		if d := DistanceKm(p[0], p[0]); d != 0 {
			t.Fatalf("DistanceKm(a,a) = %v, want 0", d)
		}
	}
}

func TestDistanceKmOneDegreeOfLongitudeAtEquator(t *testing.T) {
	got := DistanceKm(model.Coordinate{}, model.Coordinate{Lng: 1})
	want := EarthRadiusKm * math.Pi / 180
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("DistanceKm = %v, want %v", got, want)
	}
}

func TestDestinationPointRoundTrip(t *testing.T) {
	for _, dist := range []float64{0.1, 1, 5, 42, 250, 999} {
		for _, bearing := range []float64{0, 37, 90, 180, 271, 359} {
			dest := DestinationPoint(moscow, bearing, dist)
			got := DistanceKm(moscow, dest)
			if rel := math.Abs(got-dist) / dist; rel > 0.005 {
				t.Fatalf("bearing %v dist %v: round trip = %v (rel err %v)", bearing, dist, got, rel)
			}
		}
	}
}

func TestDestinationPointNormalisesLongitude(t *testing.T) {
	dest := DestinationPoint(model.Coordinate{Lat: 0, Lng: 179.9}, 90, 50)
	if dest.Lng < -180 || dest.Lng > 180 {
		t.Fatalf("longitude %v outside [-180, 180]", dest.Lng)
	}
	if dest.Lng > 0 {
		t.Fatalf("expected crossing the antimeridian, got lng %v", dest.Lng)
	}
}

func TestIsWithinRadius(t *testing.T) {
	far := model.Coordinate{Lat: -33.8688, Lng: 151.2093}
	if !IsWithinRadius(moscow, far, nil) {
		t.Fatalf("nil radius must always be within")
	}
	if IsWithinRadius(moscow, far, model.Float64Ptr(100)) {
		t.Fatalf("Sydney is not within 100 km of Moscow")
	}
	near := DestinationPoint(moscow, 45, 9.5)
	if !IsWithinRadius(moscow, near, model.Float64Ptr(10)) {
		t.Fatalf("point 9.5 km away should be within 10 km")
	}
}

func TestBoundaryRingIsClosedAndOnRadius(t *testing.T) {
	for _, radius := range []float64{0.5, 10, 100, 1000} {
		ring := BoundaryRing(moscow, radius)
		if len(ring) != 361 {
			t.Fatalf("len(ring) = %d, want 361", len(ring))
		}
		if ring[0] != ring[360] {
			t.Fatalf("ring not closed: first %v last %v", ring[0], ring[360])
		}
		for i, p := range ring {
			if d := DistanceKm(moscow, p); math.Abs(d-radius)/radius > 1e-6 {
				t.Fatalf("radius %v point %d at %v km", radius, i, d)
			}
		}
	}
}

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name  string
		c     model.Coordinate
		valid bool
	}{
		{"origin", model.Coordinate{}, true},
		{"poles and antimeridian", model.Coordinate{Lat: 90, Lng: -180}, true},
		{"lat too high", model.Coordinate{Lat: 90.0001}, false},
		{"lat too low", model.Coordinate{Lat: -91}, false},
		{"lng too high", model.Coordinate{Lng: 180.5}, false},
		{"nan", model.Coordinate{Lat: math.NaN()}, false},
		{"inf", model.Coordinate{Lng: math.Inf(1)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoordinate(tc.c)
			if tc.valid && err != nil {
				t.Fatalf("ValidateCoordinate(%v) = %v, want nil", tc.c, err)
			}
			if !tc.valid && !errors.Is(err, ErrInvalidCoordinate) {
				t.Fatalf("ValidateCoordinate(%v) = %v, want ErrInvalidCoordinate", tc.c, err)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(1, 3, 20); got != 3 {
		t.Fatalf("clamp low = %d", got)
	}
	if got := clamp(25, 3, 20); got != 20 {
		t.Fatalf("clamp high = %d", got)
	}
	if got := clamp(7.5, 3.0, 20.0); got != 7.5 {
		t.Fatalf("clamp mid = %v", got)
	}
}
