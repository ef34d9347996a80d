//go:build perf || perf_large

package perf

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/signalsfoundry/route-link-planner/core"
	"github.com/signalsfoundry/route-link-planner/internal/logging"
	"github.com/signalsfoundry/route-link-planner/internal/nbi"
	"github.com/signalsfoundry/route-link-planner/internal/nbi/types"
	"github.com/signalsfoundry/route-link-planner/internal/planning"
	"github.com/signalsfoundry/route-link-planner/kb"
	"github.com/signalsfoundry/route-link-planner/model"
)

type perfConfig struct {
	Routes        int
	ProfilePoints int
	Boundaries    int
}

// ridgeSource returns a rolling terrain so both LoS outcomes occur.
func ridgeSource() core.ElevationSourceFunc {
	return func(_ context.Context, pts []model.Coordinate) ([]float64, error) {
		out := make([]float64, len(pts))
		for i, p := range pts {
			out[i] = 200 + 80*math.Sin(p.Lng*150)
		}
		return out, nil
	}
}

func newService() *nbi.RoutePlannerService {
	svc := planning.NewService(ridgeSource(), kb.DefaultFleet(), nil)
	return nbi.NewRoutePlannerService(svc, logging.Noop())
}

func coord(lat, lng float64) *types.Coordinate {
	return &types.Coordinate{Lat: &lat, Lng: &lng}
}

func benchmarkPlanRoute(b *testing.B, cfg perfConfig) {
	ctx := context.Background()
	svc := newService()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		for j := 0; j < cfg.Routes; j++ {
			offset := float64(j%50) * 0.001
			req := &types.PlanRouteRequest{
				Start:     coord(55.75, 37.60+offset),
				End:       coord(55.80, 37.70+offset),
				VehicleID: "4",
			}
			if _, err := svc.PlanRoute(ctx, req); err != nil {
				b.Fatalf("PlanRoute(%d): %v", j, err)
			}
		}
	}
}

func benchmarkAnalyzeProfile(b *testing.B, cfg perfConfig) {
	ctx := context.Background()
	svc := newService()
	req := profileRequest(cfg.ProfilePoints)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.AnalyzeProfile(ctx, req); err != nil {
			b.Fatalf("AnalyzeProfile(%d points): %v", cfg.ProfilePoints, err)
		}
	}
}

func benchmarkRangeBoundary(b *testing.B, cfg perfConfig) {
	ctx := context.Background()
	svc := newService()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		for j := 0; j < cfg.Boundaries; j++ {
			req := &types.RangeBoundaryRequest{
				Center:    coord(float64(j%80), float64(j%170)),
				VehicleID: fmt.Sprintf("%d", 1+j%4),
			}
			if _, err := svc.RangeBoundary(ctx, req); err != nil {
				b.Fatalf("RangeBoundary(%d): %v", j, err)
			}
		}
	}
}

func profileRequest(points int) *types.AnalyzeProfileRequest {
	rangeKm := 1000.0
	out := &types.AnalyzeProfileRequest{
		Points:     make([]types.ProfilePoint, points),
		DroneRange: &rangeKm,
		Frequency:  5.8,
	}
	for i := range out.Points {
		lng := 37.6 + float64(i)*0.0005
		elev := 200 + 80*math.Sin(lng*150)
		out.Points[i] = types.SampleToProfilePoint(model.ElevationSample{
			Coordinate: model.Coordinate{Lat: 55.75, Lng: lng},
			ElevationM: elev,
		})
	}
	return out
}
