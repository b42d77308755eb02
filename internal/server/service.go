package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/orders-tracker/internal/contacts"
	"github.com/joseph-ayodele/orders-tracker/internal/export"
	"github.com/joseph-ayodele/orders-tracker/internal/orders"
)

const ServiceName = "orders.v1.OrderService"

// OrderServiceServer is the server API for orders.v1.OrderService. Every
// request and response is a google.protobuf.Struct.
type OrderServiceServer interface {
	AnalyzeText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOrders(context.Context, *structpb.Struct) (*structpb.Struct, error)
	OrderStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportOrders(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListContacts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateContact(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(OrderServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call structMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(OrderServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(OrderServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("AnalyzeText", OrderServiceServer.AnalyzeText),
		unaryHandler("CreateOrder", OrderServiceServer.CreateOrder),
		unaryHandler("GetOrder", OrderServiceServer.GetOrder),
		unaryHandler("UpdateOrder", OrderServiceServer.UpdateOrder),
		unaryHandler("DeleteOrder", OrderServiceServer.DeleteOrder),
		unaryHandler("ListOrders", OrderServiceServer.ListOrders),
		unaryHandler("OrderStats", OrderServiceServer.OrderStats),
		unaryHandler("ExportOrders", OrderServiceServer.ExportOrders),
		unaryHandler("ListContacts", OrderServiceServer.ListContacts),
		unaryHandler("CreateContact", OrderServiceServer.CreateContact),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orders/v1/orders.proto",
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderServiceDesc, srv)
}

// Options configures NewGRPCServer.
type Options struct {
	Reflection bool
	Extra      []grpc.ServerOption
}

// NewGRPCServer builds a server with the order service, the health service and
// optionally reflection registered. The health status starts as SERVING.
func NewGRPCServer(srv OrderServiceServer, logger *slog.Logger, opts Options) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	serverOpts := append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(UnaryLogging(logger))}, opts.Extra...)
	gs := grpc.NewServer(serverOpts...)

	RegisterOrderServiceServer(gs, srv)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	if opts.Reflection {
		reflection.Register(gs)
	}
	return gs, hs
}

// OrderServer implements OrderServiceServer on top of the business services.
type OrderServer struct {
	orders   *orders.Service
	contacts *contacts.Service
	export   *export.Service
	logger   *slog.Logger
}

func NewOrderServer(o *orders.Service, c *contacts.Service, e *export.Service, logger *slog.Logger) *OrderServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderServer{orders: o, contacts: c, export: e, logger: logger}
}
