// Package grpc exposes the access gateway as the cloudrive.Drive gRPC
// service.
package grpc

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/logging"
	"github.com/dmitrijs2005/cloudrive/internal/rpc"
	"github.com/dmitrijs2005/cloudrive/internal/server/gateway"
	"github.com/dmitrijs2005/cloudrive/internal/server/models"
	"google.golang.org/grpc"
)

// Gateway is the subset of gateway.Gateway the transport needs.
type Gateway interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, bearer string) error
	Upload(ctx context.Context, bearer string, parentID *string, name string, r io.Reader) (*models.Node, error)
	Mkdir(ctx context.Context, bearer string, parentID *string, name string) (*models.Node, error)
	List(ctx context.Context, bearer string, parentID *string) ([]*models.Node, error)
	Stat(ctx context.Context, bearer, nodeID string) (*models.Node, error)
	Download(ctx context.Context, creds gateway.Credentials, nodeID string) (*models.Node, io.ReadCloser, error)
	Delete(ctx context.Context, bearer, nodeID string) (int, error)
	Rename(ctx context.Context, bearer, nodeID, name string) error
	Move(ctx context.Context, bearer, nodeID string, newParentID *string) error
	Share(ctx context.Context, bearer, nodeID string, readOnly bool, ttl *time.Duration) (*models.Share, error)
	Unshare(ctx context.Context, bearer, token string) error
}

type GRPCServer struct {
	address string
	gateway Gateway
	logger  logging.Logger
}

func NewGRPCServer(address string, l logging.Logger, g Gateway) *GRPCServer {
	return &GRPCServer{
		address: address,
		logger:  l.With("module", "grpc_server"),
		gateway: g,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.metricsUnaryInterceptor, s.credentialsUnaryInterceptor),
		grpc.ChainStreamInterceptor(s.metricsStreamInterceptor, s.credentialsStreamInterceptor),
	)
	rpc.RegisterDriveServer(srv, &driveHandler{gateway: s.gateway, logger: s.logger})
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
