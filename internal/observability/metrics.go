package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Outcome labels for route_analyses_total.
const (
	OutcomeOK             = "ok"
	OutcomeCritical       = "critical"
	OutcomeRangeViolation = "range_violation"
	OutcomeInvalid        = "invalid"
	OutcomeUpstreamError  = "upstream_error"
)

// PlannerCollector bundles Prometheus metrics for the planner's gRPC and
// HTTP surfaces and its analysis pipeline.
type PlannerCollector struct {
	gatherer prometheus.Gatherer

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	RouteAnalyses     *prometheus.CounterVec
	RouteDistance     prometheus.Histogram
	CriticalSegments  prometheus.Counter
	ElevationRequests *prometheus.CounterVec
	ElevationLatency  prometheus.Histogram
}

// NewPlannerCollector registers planner metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPlannerCollector(reg prometheus.Registerer) (*PlannerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	latencyBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

	rpcRequests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_grpc_requests_total",
		Help: "Total number of handled planner RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "planner_grpc_requests_total")
	if err != nil {
		return nil, err
	}
	rpcDurations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_grpc_request_duration_seconds",
		Help:    "Planner RPC latency in seconds.",
		Buckets: latencyBuckets,
	}, []string{"service", "method"}), "planner_grpc_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	httpRequests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route template, method, and status code.",
	}, []string{"route", "method", "code"}), "planner_http_requests_total")
	if err != nil {
		return nil, err
	}
	httpDurations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: latencyBuckets,
	}, []string{"route", "method"}), "planner_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	analyses, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route_analyses_total",
		Help: "Route analyses performed, labeled by outcome.",
	}, []string{"outcome"}), "route_analyses_total")
	if err != nil {
		return nil, err
	}
	distance, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_distance_km",
		Help:    "Great-circle length of analysed routes in kilometres.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
	}), "route_distance_km")
	if err != nil {
		return nil, err
	}
	critical, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "route_segments_critical_total",
		Help: "Route segments classified as critical.",
	}), "route_segments_critical_total")
	if err != nil {
		return nil, err
	}
	elevation, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "elevation_requests_total",
		Help: "Upstream elevation API requests, labeled by result (ok, retry, error).",
	}, []string{"result"}), "elevation_requests_total")
	if err != nil {
		return nil, err
	}
	elevationLatency, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "elevation_request_duration_seconds",
		Help:    "Upstream elevation API latency in seconds.",
		Buckets: latencyBuckets,
	}), "elevation_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &PlannerCollector{
		gatherer:          gatherer,
		RPCRequests:       rpcRequests,
		RPCDurations:      rpcDurations,
		HTTPRequests:      httpRequests,
		HTTPDurations:     httpDurations,
		RouteAnalyses:     analyses,
		RouteDistance:     distance,
		CriticalSegments:  critical,
		ElevationRequests: elevation,
		ElevationLatency:  elevationLatency,
	}, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *PlannerCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, code).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}

		return resp, err
	}
}

// HTTPMiddleware records request counts and durations labeled by the
// matched mux route template. Unmatched requests use "unmatched".
func (c *PlannerCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		if c == nil {
			return
		}
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		if c.HTTPRequests != nil {
			c.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		}
		if c.HTTPDurations != nil {
			c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// ObserveRouteAnalysis satisfies planning.MetricsRecorder.
func (c *PlannerCollector) ObserveRouteAnalysis(outcome string, distanceKm float64, criticalSegments int) {
	if c == nil {
		return
	}
	if c.RouteAnalyses != nil {
		c.RouteAnalyses.WithLabelValues(outcome).Inc()
	}
	if c.RouteDistance != nil && distanceKm > 0 {
		c.RouteDistance.Observe(distanceKm)
	}
	if c.CriticalSegments != nil && criticalSegments > 0 {
		c.CriticalSegments.Add(float64(criticalSegments))
	}
}

// ObserveElevationRequest satisfies elevation.Recorder.
func (c *PlannerCollector) ObserveElevationRequest(result string, d time.Duration) {
	if c == nil {
		return
	}
	if c.ElevationRequests != nil {
		c.ElevationRequests.WithLabelValues(result).Inc()
	}
	if c.ElevationLatency != nil {
		c.ElevationLatency.Observe(d.Seconds())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PlannerCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerCounter(reg prometheus.Registerer, ctr prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(ctr); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return ctr, nil
}
