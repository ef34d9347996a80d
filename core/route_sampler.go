package core

import (
	"math"

	"github.com/signalsfoundry/route-link-planner/model"
)

const (
	// samplesPerKm controls sampling density along a route.
	samplesPerKm = 2
	// MinRouteIntervals and MaxRouteIntervals bound the number of intervals
	// a route is split into; the sample count is one more.
	MinRouteIntervals = 3
	MaxRouteIntervals = 20
)

// BuildSampleCoordinates returns the ordered elevation lookup points between
// start and end, both included exactly.
//
// Latitude and longitude are interpolated independently (planar, not along
// the great circle). The error this introduces is negligible at the tens of
// kilometres a single route spans with at most 21 samples, but it grows near
// the poles and across the antimeridian.
func BuildSampleCoordinates(start, end model.Coordinate) []model.Coordinate {
	d := DistanceKm(start, end)
	n := clamp(int(math.Floor(d*samplesPerKm)), MinRouteIntervals, MaxRouteIntervals)

	points := make([]model.Coordinate, 0, n+1)
	points = append(points, start)
	for i := 1; i < n; i++ {
		ratio := float64(i) / float64(n)
		points = append(points, model.Coordinate{
			Lat: start.Lat + (end.Lat-start.Lat)*ratio,
			Lng: start.Lng + (end.Lng-start.Lng)*ratio,
		})
	}
	return append(points, end)
}

// CollapseElevationProfile thins consecutive samples whose elevation, rounded
// to the nearest metre, repeats the previously kept one. The first and last
// samples are always kept. Kept samples carry the rounded elevation.
//
// The result is for display only: analysis must run on the full profile.
func CollapseElevationProfile(samples []model.ElevationSample) []model.ElevationSample {
	if len(samples) == 0 {
		return nil
	}

	out := make([]model.ElevationSample, 0, len(samples))
	var last float64
	for i, s := range samples {
		rounded := math.Round(s.ElevationM)
		first, final := i == 0, i == len(samples)-1
		// NaN never equals itself, so missing elevations are always kept.
		if first || final || rounded != last {
			out = append(out, model.ElevationSample{Coordinate: s.Coordinate, ElevationM: rounded})
			last = rounded
		}
	}
	return out
}
