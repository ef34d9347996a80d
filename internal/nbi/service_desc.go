package nbi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/signalsfoundry/route-link-planner/internal/nbi/types"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "planner.v1.RoutePlannerService"

// Full method names, as seen by interceptors.
const (
	PlanRouteFullMethod      = "/" + ServiceName + "/PlanRoute"
	AnalyzeProfileFullMethod = "/" + ServiceName + "/AnalyzeProfile"
	RangeBoundaryFullMethod  = "/" + ServiceName + "/RangeBoundary"
	ListVehiclesFullMethod   = "/" + ServiceName + "/ListVehicles"
)

// RoutePlannerServer is the server API of planner.v1.RoutePlannerService.
type RoutePlannerServer interface {
	PlanRoute(context.Context, *types.PlanRouteRequest) (*types.PlanRouteResponse, error)
	AnalyzeProfile(context.Context, *types.AnalyzeProfileRequest) (*types.AnalyzeProfileResponse, error)
	RangeBoundary(context.Context, *types.RangeBoundaryRequest) (*types.RangeBoundaryResponse, error)
	ListVehicles(context.Context, *emptypb.Empty) (*types.ListVehiclesResponse, error)
}

// RegisterRoutePlannerServer registers srv on s.
func RegisterRoutePlannerServer(s grpc.ServiceRegistrar, srv RoutePlannerServer) {
	s.RegisterService(&RoutePlannerServiceDesc, srv)
}

// RoutePlannerServiceDesc describes planner.v1.RoutePlannerService as
// declared in api/planner/v1/planner.proto. Messages travel over the json
// codec, so the structs in package types carry the proto JSON names.
var RoutePlannerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RoutePlannerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlanRoute", Handler: planRouteHandler},
		{MethodName: "AnalyzeProfile", Handler: analyzeProfileHandler},
		{MethodName: "RangeBoundary", Handler: rangeBoundaryHandler},
		{MethodName: "ListVehicles", Handler: listVehiclesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "planner/v1/planner.proto",
}

func planRouteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(types.PlanRouteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoutePlannerServer).PlanRoute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PlanRouteFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RoutePlannerServer).PlanRoute(ctx, req.(*types.PlanRouteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func analyzeProfileHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(types.AnalyzeProfileRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoutePlannerServer).AnalyzeProfile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AnalyzeProfileFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RoutePlannerServer).AnalyzeProfile(ctx, req.(*types.AnalyzeProfileRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func rangeBoundaryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(types.RangeBoundaryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoutePlannerServer).RangeBoundary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RangeBoundaryFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RoutePlannerServer).RangeBoundary(ctx, req.(*types.RangeBoundaryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listVehiclesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RoutePlannerServer).ListVehicles(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListVehiclesFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RoutePlannerServer).ListVehicles(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
