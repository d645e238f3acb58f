// Package grpc exposes the sync and summary operations as a gRPC service and
// provides the matching client.
package grpc

import (
	"context"
	"errors"
	"log"
	"net"

	"discord-summarizer/models"
	"discord-summarizer/service"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "summarizer.v1.SyncControl"

// Service is the triggering interface served over gRPC.
type Service interface {
	StartSync(ctx context.Context, serverID string) (models.StartSyncResult, error)
	SyncStatus(serverID string) (models.SyncJobState, error)
	Summarize(ctx context.Context, serverID string) (models.SummaryResponse, error)
	ClearCache(ctx context.Context, serverID string) (models.ClearCacheResult, error)
	Channels(ctx context.Context, serverID string) ([]models.ChannelInfo, error)
}

// SyncControlServer adapts Service to the wire.
type SyncControlServer struct {
	svc Service
}

func (s *SyncControlServer) StartSync(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.svc.StartSync(ctx, serverIDOf(req))
	if err != nil {
		return nil, toStatus("StartSync", err)
	}
	return respond("StartSync", res)
}

func (s *SyncControlServer) SyncStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	state, err := s.svc.SyncStatus(serverIDOf(req))
	if err != nil {
		return nil, toStatus("SyncStatus", err)
	}
	return respond("SyncStatus", state)
}

func (s *SyncControlServer) Summarize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	resp, err := s.svc.Summarize(ctx, serverIDOf(req))
	if err != nil {
		return nil, toStatus("Summarize", err)
	}
	return respond("Summarize", resp)
}

func (s *SyncControlServer) ClearCache(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.svc.ClearCache(ctx, serverIDOf(req))
	if err != nil {
		return nil, toStatus("ClearCache", err)
	}
	return respond("ClearCache", res)
}

func (s *SyncControlServer) ListChannels(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	serverID := serverIDOf(req)
	channels, err := s.svc.Channels(ctx, serverID)
	if err != nil {
		return nil, toStatus("ListChannels", err)
	}
	return respond("ListChannels", channelList{ServerID: serverID, Channels: channels})
}

type channelList struct {
	ServerID string               `json:"server_id"`
	Channels []models.ChannelInfo `json:"channels"`
}

func respond(op string, v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, toStatus(op, err)
	}
	return out, nil
}

// toStatus maps service errors to gRPC codes; anything unexpected is
// reported as a bare internal error.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "No sync found for this server")
	case errors.Is(err, service.ErrInvalidServerID):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		log.Printf("[gRPC] %s failed: %v", op, err)
		return status.Error(codes.Internal, "internal server error")
	}
}

type syncControl interface {
	StartSync(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SyncStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Summarize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClearCache(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListChannels(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(method string, call func(syncControl, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(syncControl), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(syncControl), ctx, req.(*structpb.Struct))
		})
	}
}

// serviceDesc describes SyncControl. Every method takes and returns a
// google.protobuf.Struct.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*syncControl)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StartSync", Handler: unaryHandler("StartSync", syncControl.StartSync)},
		{MethodName: "SyncStatus", Handler: unaryHandler("SyncStatus", syncControl.SyncStatus)},
		{MethodName: "Summarize", Handler: unaryHandler("Summarize", syncControl.Summarize)},
		{MethodName: "ClearCache", Handler: unaryHandler("ClearCache", syncControl.ClearCache)},
		{MethodName: "ListChannels", Handler: unaryHandler("ListChannels", syncControl.ListChannels)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "summarizer/v1/sync_control.proto",
}

// Server hosts SyncControl and the standard health service.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
}

// NewServer registers svc on a new gRPC server.
func NewServer(svc Service, opts ...grpc.ServerOption) *Server {
	gs := grpc.NewServer(opts...)
	gs.RegisterService(&serviceDesc, &SyncControlServer{svc: svc})

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &Server{grpcServer: gs, health: hs}
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	log.Printf("[gRPC] SyncControl listening on %s", lis.Addr())
	return s.grpcServer.Serve(lis)
}

// ListenAndServe listens on addr and serves.
func (s *Server) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Stop marks the service not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
