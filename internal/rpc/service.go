// Package rpc carries the session and daemon services over gRPC. Messages are
// google.protobuf.Struct values so no generated code is needed on either side.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	SessionServiceName = "sessiontab.v1.SessionService"
	DaemonServiceName  = "sessiontab.v1.DaemonService"

	listSessionsMethod = "/" + SessionServiceName + "/ListSessions"
	getSessionMethod   = "/" + SessionServiceName + "/GetSession"
	getStatusMethod    = "/" + DaemonServiceName + "/GetStatus"
	shutdownMethod     = "/" + DaemonServiceName + "/Shutdown"
)

type SessionServiceServer interface {
	ListSessions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type DaemonServiceServer interface {
	GetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Shutdown(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListSessions",
			Handler: unaryHandler(listSessionsMethod, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(SessionServiceServer).ListSessions(ctx, in)
			}),
		},
		{
			MethodName: "GetSession",
			Handler: unaryHandler(getSessionMethod, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(SessionServiceServer).GetSession(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sessiontab/v1/sessions.proto",
}

var DaemonServiceDesc = grpc.ServiceDesc{
	ServiceName: DaemonServiceName,
	HandlerType: (*DaemonServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStatus",
			Handler: unaryHandler(getStatusMethod, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(DaemonServiceServer).GetStatus(ctx, in)
			}),
		},
		{
			MethodName: "Shutdown",
			Handler: unaryHandler(shutdownMethod, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return srv.(DaemonServiceServer).Shutdown(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sessiontab/v1/daemon.proto",
}

type structCall func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Register attaches both services to server.
func Register(server *grpc.Server, sessionsHandler SessionServiceServer, daemonHandler DaemonServiceServer) {
	server.RegisterService(&SessionServiceDesc, sessionsHandler)
	if daemonHandler != nil {
		server.RegisterService(&DaemonServiceDesc, daemonHandler)
	}
}
