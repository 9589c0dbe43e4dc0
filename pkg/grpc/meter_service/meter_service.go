// Package meter_service describes the flowmeter.MeterService gRPC service.
// Messages are plain Go structs carried by the JSON codec in codec.go.
package meter_service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

const (
	MeterService_Ingest_FullMethodName      = "/flowmeter.MeterService/Ingest"
	MeterService_PostLimiter_FullMethodName = "/flowmeter.MeterService/PostLimiter"
	MeterService_Subscribe_FullMethodName   = "/flowmeter.MeterService/Subscribe"
)

type MeterServiceClient interface {
	Ingest(ctx context.Context, in *IngestRequest, opts ...grpc.CallOption) (*IngestResponse, error)
	PostLimiter(ctx context.Context, in *PostLimiterRequest, opts ...grpc.CallOption) (*PostLimiterResponse, error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (MeterService_SubscribeClient, error)
}

type meterServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMeterServiceClient(cc grpc.ClientConnInterface) MeterServiceClient {
	return &meterServiceClient{cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *meterServiceClient) Ingest(ctx context.Context, in *IngestRequest, opts ...grpc.CallOption) (*IngestResponse, error) {
	out := new(IngestResponse)
	err := c.cc.Invoke(ctx, MeterService_Ingest_FullMethodName, in, out, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *meterServiceClient) PostLimiter(ctx context.Context, in *PostLimiterRequest, opts ...grpc.CallOption) (*PostLimiterResponse, error) {
	out := new(PostLimiterResponse)
	err := c.cc.Invoke(ctx, MeterService_PostLimiter_FullMethodName, in, out, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *meterServiceClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (MeterService_SubscribeClient, error) {
	stream, err := c.cc.NewStream(ctx, &MeterService_ServiceDesc.Streams[0], MeterService_Subscribe_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &meterServiceSubscribeClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type MeterService_SubscribeClient interface {
	Recv() (*models.ReadingEvent, error)
	grpc.ClientStream
}

type meterServiceSubscribeClient struct {
	grpc.ClientStream
}

func (x *meterServiceSubscribeClient) Recv() (*models.ReadingEvent, error) {
	m := new(models.ReadingEvent)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// MeterServiceServer is the server API for MeterService.
// All implementations must embed UnimplementedMeterServiceServer.
type MeterServiceServer interface {
	Ingest(context.Context, *IngestRequest) (*IngestResponse, error)
	PostLimiter(context.Context, *PostLimiterRequest) (*PostLimiterResponse, error)
	Subscribe(*SubscribeRequest, MeterService_SubscribeServer) error
	mustEmbedUnimplementedMeterServiceServer()
}

type UnimplementedMeterServiceServer struct{}

func (UnimplementedMeterServiceServer) Ingest(context.Context, *IngestRequest) (*IngestResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Ingest not implemented")
}
func (UnimplementedMeterServiceServer) PostLimiter(context.Context, *PostLimiterRequest) (*PostLimiterResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PostLimiter not implemented")
}
func (UnimplementedMeterServiceServer) Subscribe(*SubscribeRequest, MeterService_SubscribeServer) error {
	return status.Errorf(codes.Unimplemented, "method Subscribe not implemented")
}
func (UnimplementedMeterServiceServer) mustEmbedUnimplementedMeterServiceServer() {}

func RegisterMeterServiceServer(s grpc.ServiceRegistrar, srv MeterServiceServer) {
	s.RegisterService(&MeterService_ServiceDesc, srv)
}

func _MeterService_Ingest_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(IngestRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeterServiceServer).Ingest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MeterService_Ingest_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MeterServiceServer).Ingest(ctx, req.(*IngestRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MeterService_PostLimiter_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PostLimiterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeterServiceServer).PostLimiter(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MeterService_PostLimiter_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MeterServiceServer).PostLimiter(ctx, req.(*PostLimiterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _MeterService_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(MeterServiceServer).Subscribe(m, &meterServiceSubscribeServer{stream})
}

type MeterService_SubscribeServer interface {
	Send(*models.ReadingEvent) error
	grpc.ServerStream
}

type meterServiceSubscribeServer struct {
	grpc.ServerStream
}

func (x *meterServiceSubscribeServer) Send(m *models.ReadingEvent) error {
	return x.ServerStream.SendMsg(m)
}

var MeterService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "flowmeter.MeterService",
	HandlerType: (*MeterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Ingest",
			Handler:    _MeterService_Ingest_Handler,
		},
		{
			MethodName: "PostLimiter",
			Handler:    _MeterService_PostLimiter_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _MeterService_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "meter_service.go",
}
