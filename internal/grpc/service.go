package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"sushiDelivery/internal/lifecycle"
)

const ServiceName = "sushi.v1.OrderService"

// OrderServiceServer is the server API for sushi.v1.OrderService.
type OrderServiceServer interface {
	ResolveAddress(context.Context, *ResolveAddressRequest) (*LocationResponse, error)
	PlacePin(context.Context, *PlacePinRequest) (*LocationResponse, error)
	PreviewRoute(context.Context, *PreviewRouteRequest) (*PreviewRouteResponse, error)
	ListPromotions(context.Context, *emptypb.Empty) (*ListPromotionsResponse, error)
	UpdatePromotionPrice(context.Context, *UpdatePromotionPriceRequest) (*emptypb.Empty, error)
	SearchCustomers(context.Context, *SearchCustomersRequest) (*SearchCustomersResponse, error)
	CreateOrder(context.Context, *CreateOrderRequest) (*OrderResponse, error)
	GetOrder(context.Context, *OrderRequest) (*OrderResponse, error)
	ListOrders(context.Context, *emptypb.Empty) (*ListOrdersResponse, error)
	Transition(context.Context, *TransitionRequest) (*OrderResponse, error)
	ConfirmPayment(context.Context, *OrderRequest) (*OrderResponse, error)
	Dashboard(context.Context, *emptypb.Empty) (*DashboardResponse, error)
	WatchOrders(*emptypb.Empty, OrderService_WatchOrdersServer) error
}

// OrderService_WatchOrdersServer is the server side of the WatchOrders stream.
type OrderService_WatchOrdersServer interface {
	Send(*lifecycle.Event) error
	grpc.ServerStream
}

type watchOrdersServer struct {
	grpc.ServerStream
}

func (x *watchOrdersServer) Send(e *lifecycle.Event) error {
	return x.ServerStream.SendMsg(e)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary adapts a typed method to grpc.MethodHandler.
func unary[Req, Resp any](name string, call func(OrderServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(OrderServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(OrderServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchOrdersHandler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(OrderServiceServer).WatchOrders(m, &watchOrdersServer{stream})
}

// OrderServiceDesc describes sushi.v1.OrderService for grpc.Server.RegisterService.
var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ResolveAddress", OrderServiceServer.ResolveAddress),
		unary("PlacePin", OrderServiceServer.PlacePin),
		unary("PreviewRoute", OrderServiceServer.PreviewRoute),
		unary("ListPromotions", OrderServiceServer.ListPromotions),
		unary("UpdatePromotionPrice", OrderServiceServer.UpdatePromotionPrice),
		unary("SearchCustomers", OrderServiceServer.SearchCustomers),
		unary("CreateOrder", OrderServiceServer.CreateOrder),
		unary("GetOrder", OrderServiceServer.GetOrder),
		unary("ListOrders", OrderServiceServer.ListOrders),
		unary("Transition", OrderServiceServer.Transition),
		unary("ConfirmPayment", OrderServiceServer.ConfirmPayment),
		unary("Dashboard", OrderServiceServer.Dashboard),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchOrders",
			Handler:       watchOrdersHandler,
			ServerStreams: true,
		},
	},
	Metadata: "sushi/v1/order_service.proto",
}

// RegisterOrderServiceServer registers srv on s.
func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderServiceDesc, srv)
}
