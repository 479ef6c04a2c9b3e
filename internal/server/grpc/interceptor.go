package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/rpc"
	"github.com/dmitrijs2005/cloudrive/internal/server/gateway"
	"github.com/dmitrijs2005/cloudrive/internal/server/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const credentialsKey ctxKey = "credentials"

func credentialsFromContext(ctx context.Context) gateway.Credentials {
	c, _ := ctx.Value(credentialsKey).(gateway.Credentials)
	return c
}

func firstValue(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// withCredentials reads the bearer and share token from the request
// metadata. Methods outside rpc.PublicMethods need a bearer.
func withCredentials(ctx context.Context, fullMethod string) (context.Context, error) {
	var creds gateway.Credentials
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		creds.Bearer = firstValue(md, common.AccessTokenHeaderName)
		creds.ShareToken = firstValue(md, common.ShareTokenHeaderName)
	}
	if creds.Bearer == "" && !rpc.PublicMethods[fullMethod] {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return context.WithValue(ctx, credentialsKey, creds), nil
}

func (s *GRPCServer) credentialsUnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ctx, err := withCredentials(ctx, info.FullMethod)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

// wrappedStream overrides the stream context.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

func (s *GRPCServer) credentialsStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := withCredentials(ss.Context(), info.FullMethod)
	if err != nil {
		return err
	}
	return handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx})
}

func (s *GRPCServer) metricsUnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	metrics.RecordRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
	return resp, err
}

func (s *GRPCServer) metricsStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	metrics.RecordRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
	return err
}
