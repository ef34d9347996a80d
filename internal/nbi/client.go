package nbi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/signalsfoundry/route-link-planner/internal/nbi/types"
)

// Client is a RoutePlannerService client that always selects the json
// codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *Client) PlanRoute(ctx context.Context, in *types.PlanRouteRequest, opts ...grpc.CallOption) (*types.PlanRouteResponse, error) {
	out := new(types.PlanRouteResponse)
	if err := c.invoke(ctx, PlanRouteFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AnalyzeProfile(ctx context.Context, in *types.AnalyzeProfileRequest, opts ...grpc.CallOption) (*types.AnalyzeProfileResponse, error) {
	out := new(types.AnalyzeProfileResponse)
	if err := c.invoke(ctx, AnalyzeProfileFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RangeBoundary(ctx context.Context, in *types.RangeBoundaryRequest, opts ...grpc.CallOption) (*types.RangeBoundaryResponse, error) {
	out := new(types.RangeBoundaryResponse)
	if err := c.invoke(ctx, RangeBoundaryFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListVehicles(ctx context.Context, opts ...grpc.CallOption) (*types.ListVehiclesResponse, error) {
	out := new(types.ListVehiclesResponse)
	if err := c.invoke(ctx, ListVehiclesFullMethod, &emptypb.Empty{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
