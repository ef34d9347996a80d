package core

// RouteAnalysisResult is the route-level verdict returned to callers.
type RouteAnalysisResult struct {
	Segments        []RouteSegment `json:"analysis"`
	TotalDistanceKm float64        `json:"totalDistanceKm"`
	AnyCritical     bool           `json:"anyCritical"`
}

// Aggregate sums segment distances and flags whether any segment is
// critical.
func Aggregate(segments []RouteSegment) RouteAnalysisResult {
	res := RouteAnalysisResult{Segments: segments}
	for _, s := range segments {
		res.TotalDistanceKm += s.DistanceKm
		if s.IsCritical {
			res.AnyCritical = true
		}
	}
	return res
}

// CriticalCount returns how many segments are critical.
func (r RouteAnalysisResult) CriticalCount() int {
	n := 0
	for _, s := range r.Segments {
		if s.IsCritical {
			n++
		}
	}
	return n
}
