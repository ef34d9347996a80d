package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/planner.v1.RoutePlannerService/PlanRoute"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		time.Sleep(5 * time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("RoutePlannerService", "PlanRoute", "OK")); got != 1 {
		t.Fatalf("planner_grpc_requests_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "planner_grpc_request_duration_seconds", map[string]string{
		"service": "RoutePlannerService",
		"method":  "PlanRoute",
	}); count != 1 {
		t.Fatalf("planner_grpc_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/planner.v1.RoutePlannerService/RangeBoundary"}

	_, _ = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.OutOfRange, "too far")
	})

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("RoutePlannerService", "RangeBoundary", "OutOfRange")); got != 1 {
		t.Fatalf("planner_grpc_requests_total error label = %v, want 1", got)
	}
}

func TestHTTPMiddlewareLabelsRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}

	r := mux.NewRouter()
	r.Use(collector.HTTPMiddleware)
	r.HandleFunc("/api/drones/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/drones/42", nil))

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/api/drones/{id}", "GET", "404")); got != 1 {
		t.Fatalf("planner_http_requests_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "planner_http_request_duration_seconds", map[string]string{
		"route":  "/api/drones/{id}",
		"method": "GET",
	}); count != 1 {
		t.Fatalf("planner_http_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestDomainRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}

	collector.ObserveRouteAnalysis(OutcomeCritical, 12.5, 3)
	collector.ObserveRouteAnalysis(OutcomeRangeViolation, 0, 0)
	collector.ObserveElevationRequest("ok", 20*time.Millisecond)
	collector.ObserveElevationRequest("retry", 5*time.Millisecond)

	if got := testutil.ToFloat64(collector.RouteAnalyses.WithLabelValues(OutcomeCritical)); got != 1 {
		t.Fatalf("route_analyses_total{critical} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.CriticalSegments); got != 3 {
		t.Fatalf("route_segments_critical_total = %v, want 3", got)
	}
	if count := histogramSampleCount(t, reg, "route_distance_km", nil); count != 1 {
		t.Fatalf("route_distance_km sample_count = %d, want 1", count)
	}
	if got := testutil.ToFloat64(collector.ElevationRequests.WithLabelValues("retry")); got != 1 {
		t.Fatalf("elevation_requests_total{retry} = %v, want 1", got)
	}
}

func TestNewPlannerCollectorReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("first NewPlannerCollector: %v", err)
	}
	second, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("second NewPlannerCollector: %v", err)
	}
	second.ObserveRouteAnalysis(OutcomeOK, 1, 0)
	if got := testutil.ToFloat64(first.RouteAnalyses.WithLabelValues(OutcomeOK)); got != 1 {
		t.Fatalf("shared counter = %v, want 1", got)
	}
}

func TestMetricsHandlerExposesPlannerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPlannerCollector(reg)
	if err != nil {
		t.Fatalf("NewPlannerCollector: %v", err)
	}
	collector.RPCRequests.WithLabelValues("svc", "method", "OK").Inc()
	collector.RPCDurations.WithLabelValues("svc", "method").Observe(0.01)
	collector.ObserveRouteAnalysis(OutcomeOK, 5, 0)
	collector.ObserveElevationRequest("ok", time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"planner_grpc_requests_total",
		"planner_grpc_request_duration_seconds",
		"route_analyses_total",
		"route_distance_km",
		"elevation_requests_total",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestSplitMethod(t *testing.T) {
	tests := []struct {
		in            string
		service, meth string
	}{
		{"/planner.v1.RoutePlannerService/PlanRoute", "RoutePlannerService", "PlanRoute"},
		{"", "unknown", "unknown"},
		{"noslash", "unknown", "unknown"},
		{"/Svc/", "Svc", "unknown"},
	}
	for _, tc := range tests {
		s, m := SplitMethod(tc.in)
		if s != tc.service || m != tc.meth {
			t.Fatalf("SplitMethod(%q) = %q, %q; want %q, %q", tc.in, s, m, tc.service, tc.meth)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
