package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *rpc.DriveClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(ctx context.Context, method string, req, reply any,
	cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	return invoker(withAccessToken(ctx, s.AccessToken()), method, req, reply, cc, opts...)
}

func (s *GRPCClient) accessTokenStreamInterceptor(ctx context.Context, desc *grpc.StreamDesc,
	cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return streamer(withAccessToken(ctx, s.AccessToken()), desc, cc, method, opts...)
}

// NewGRPCClient connects to endpointURL without TLS. Extra dial options are
// appended, which lets tests swap in an in-process dialer.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithStreamInterceptor(c.accessTokenStreamInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = rpc.NewDriveClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// SetAccessToken installs a bearer token, e.g. one restored from disk.
func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

func (s *GRPCClient) Register(ctx context.Context, userName, password string) (string, error) {
	resp, err := s.client.Register(ctx, &rpc.RegisterRequest{Username: userName, Password: password})
	if err != nil {
		return "", mapError(err)
	}
	return resp.UserID, nil
}

// Login stores the returned bearer token for later calls.
func (s *GRPCClient) Login(ctx context.Context, userName, password string) error {
	resp, err := s.client.Login(ctx, &rpc.LoginRequest{Username: userName, Password: password})
	if err != nil {
		return mapError(err)
	}
	s.SetAccessToken(resp.AccessToken)
	return nil
}

// Logout ends the server session and forgets the token.
func (s *GRPCClient) Logout(ctx context.Context) error {
	_, err := s.client.Logout(ctx, &rpc.Empty{})
	s.SetAccessToken("")
	return mapError(err)
}

func (s *GRPCClient) Mkdir(ctx context.Context, parentID, name string) (*rpc.Node, error) {
	resp, err := s.client.Mkdir(ctx, &rpc.MkdirRequest{ParentID: parentID, Name: name})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Node, nil
}

// List returns the children of parentID; "" lists the root.
func (s *GRPCClient) List(ctx context.Context, parentID string) ([]*rpc.Node, error) {
	resp, err := s.client.List(ctx, &rpc.ListRequest{ParentID: parentID})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Nodes, nil
}

func (s *GRPCClient) Stat(ctx context.Context, nodeID string) (*rpc.Node, error) {
	resp, err := s.client.Stat(ctx, &rpc.StatRequest{NodeID: nodeID})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Node, nil
}

func (s *GRPCClient) Delete(ctx context.Context, nodeID string) (int, error) {
	resp, err := s.client.Delete(ctx, &rpc.DeleteRequest{NodeID: nodeID})
	if err != nil {
		return 0, mapError(err)
	}
	return resp.Deleted, nil
}

func (s *GRPCClient) Rename(ctx context.Context, nodeID, name string) error {
	_, err := s.client.Rename(ctx, &rpc.RenameRequest{NodeID: nodeID, Name: name})
	return mapError(err)
}

// Move re-parents nodeID; "" moves it to the root.
func (s *GRPCClient) Move(ctx context.Context, nodeID, newParentID string) error {
	_, err := s.client.Move(ctx, &rpc.MoveRequest{NodeID: nodeID, NewParentID: newParentID})
	return mapError(err)
}

// Share creates a public link. A nil ttl never expires.
func (s *GRPCClient) Share(ctx context.Context, nodeID string, readOnly bool, ttl *time.Duration) (*rpc.ShareResponse, error) {
	req := &rpc.ShareRequest{NodeID: nodeID, ReadOnly: readOnly}
	if ttl != nil {
		if *ttl < 0 {
			return nil, fmt.Errorf("%w: negative ttl", common.ErrorValidation)
		}
		// whole seconds on the wire, rounded up so a short ttl never becomes 0
		secs := int64(*ttl / time.Second)
		if *ttl%time.Second != 0 {
			secs++
		}
		req.TTLSeconds = &secs
	}
	resp, err := s.client.Share(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Unshare(ctx context.Context, token string) error {
	_, err := s.client.Unshare(ctx, &rpc.UnshareRequest{Token: token})
	return mapError(err)
}

// Upload streams r as a new file name under parentID.
func (s *GRPCClient) Upload(ctx context.Context, parentID, name string, r io.Reader) (*rpc.Node, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := s.client.Upload(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	if err := stream.Send(&rpc.UploadMessage{Header: &rpc.UploadHeader{ParentID: parentID, Name: name}}); err != nil {
		return nil, s.closeUpload(stream, err)
	}

	buf := make([]byte, rpc.ChunkSize)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if err := stream.Send(&rpc.UploadMessage{Chunk: buf[:n]}); err != nil {
				return nil, s.closeUpload(stream, err)
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			// cancelling the stream makes the server discard the partial upload
			cancel()
			return nil, fmt.Errorf("read upload source: %w", readErr)
		}
	}

	resp, err := stream.CloseAndRecv()
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Node, nil
}

// closeUpload resolves a failed Send. io.EOF means the server ended the
// stream and the real status comes from CloseAndRecv.
func (s *GRPCClient) closeUpload(stream rpc.UploadClient, sendErr error) error {
	if errors.Is(sendErr, io.EOF) {
		_, err := stream.CloseAndRecv()
		if err != nil {
			return mapError(err)
		}
	}
	return mapError(sendErr)
}

// Download writes the content of nodeID to w. shareToken may be empty when
// the caller is logged in as the owner.
func (s *GRPCClient) Download(ctx context.Context, nodeID, shareToken string, w io.Writer) (*rpc.Node, int64, error) {
	if shareToken != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, common.ShareTokenHeaderName, shareToken)
	}
	stream, err := s.client.Download(ctx, &rpc.DownloadRequest{NodeID: nodeID})
	if err != nil {
		return nil, 0, mapError(err)
	}

	first, err := stream.Recv()
	if err != nil {
		return nil, 0, mapError(err)
	}
	if first.Node == nil {
		return nil, 0, fmt.Errorf("download: missing node header")
	}

	var written int64
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return first.Node, written, nil
		}
		if err != nil {
			return first.Node, written, mapError(err)
		}
		n, err := w.Write(msg.Chunk)
		written += int64(n)
		if err != nil {
			return first.Node, written, err
		}
	}
}
