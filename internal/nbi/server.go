package nbi

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/route-link-planner/internal/logging"
	"github.com/signalsfoundry/route-link-planner/internal/observability"
	"github.com/signalsfoundry/route-link-planner/internal/planning"
)

// NewServer builds a gRPC server with request ids, tracing and metrics
// interceptors and registers the planner service. collector may be nil.
func NewServer(svc *planning.Service, log logging.Logger, collector *observability.PlannerCollector, extra ...grpc.ServerOption) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		RequestIDUnaryServerInterceptor(log),
		TracingUnaryServerInterceptor(),
	}
	if collector != nil {
		interceptors = append(interceptors, collector.UnaryServerInterceptor())
	}

	opts := append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	}, extra...)

	server := grpc.NewServer(opts...)
	RegisterRoutePlannerServer(server, NewRoutePlannerService(svc, log))
	return server
}
