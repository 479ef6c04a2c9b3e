package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/logging"
	"github.com/dmitrijs2005/cloudrive/internal/rpc"
	"github.com/dmitrijs2005/cloudrive/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// driveHandler implements rpc.DriveServer on top of a Gateway.
type driveHandler struct {
	gateway Gateway
	logger  logging.Logger
}

var _ rpc.DriveServer = (*driveHandler)(nil)

func toRPCNode(n *models.Node) *rpc.Node {
	if n == nil {
		return nil
	}
	return &rpc.Node{
		ID:        n.ID,
		ParentID:  common.StringValue(n.ParentID),
		Name:      n.Name,
		Kind:      string(n.Kind),
		Size:      n.Size,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (h *driveHandler) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		h.logger.Error(ctx, "request failed", "method", method, "error", err)
	}
	return st
}

func bearer(ctx context.Context) string {
	return credentialsFromContext(ctx).Bearer
}

func (h *driveHandler) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {
	h.logger.Info(ctx, "Registration request")

	u, err := h.gateway.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, h.fail(ctx, "Register", err)
	}

	h.logger.Info(ctx, "Registered", "username", req.Username)
	return &rpc.RegisterResponse{UserID: u.ID}, nil
}

func (h *driveHandler) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	token, err := h.gateway.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, h.fail(ctx, "Login", err)
	}
	return &rpc.LoginResponse{AccessToken: token}, nil
}

func (h *driveHandler) Logout(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	if err := h.gateway.Logout(ctx, bearer(ctx)); err != nil {
		return nil, h.fail(ctx, "Logout", err)
	}
	return &rpc.Empty{}, nil
}

func (h *driveHandler) Mkdir(ctx context.Context, req *rpc.MkdirRequest) (*rpc.NodeResponse, error) {
	n, err := h.gateway.Mkdir(ctx, bearer(ctx), common.StringPtr(req.ParentID), req.Name)
	if err != nil {
		return nil, h.fail(ctx, "Mkdir", err)
	}
	return &rpc.NodeResponse{Node: toRPCNode(n)}, nil
}

func (h *driveHandler) List(ctx context.Context, req *rpc.ListRequest) (*rpc.ListResponse, error) {
	nodes, err := h.gateway.List(ctx, bearer(ctx), common.StringPtr(req.ParentID))
	if err != nil {
		return nil, h.fail(ctx, "List", err)
	}
	resp := &rpc.ListResponse{Nodes: make([]*rpc.Node, 0, len(nodes))}
	for _, n := range nodes {
		resp.Nodes = append(resp.Nodes, toRPCNode(n))
	}
	return resp, nil
}

func (h *driveHandler) Stat(ctx context.Context, req *rpc.StatRequest) (*rpc.NodeResponse, error) {
	n, err := h.gateway.Stat(ctx, bearer(ctx), req.NodeID)
	if err != nil {
		return nil, h.fail(ctx, "Stat", err)
	}
	return &rpc.NodeResponse{Node: toRPCNode(n)}, nil
}

func (h *driveHandler) Delete(ctx context.Context, req *rpc.DeleteRequest) (*rpc.DeleteResponse, error) {
	count, err := h.gateway.Delete(ctx, bearer(ctx), req.NodeID)
	if err != nil {
		return nil, h.fail(ctx, "Delete", err)
	}
	return &rpc.DeleteResponse{Deleted: count}, nil
}

func (h *driveHandler) Rename(ctx context.Context, req *rpc.RenameRequest) (*rpc.Empty, error) {
	if err := h.gateway.Rename(ctx, bearer(ctx), req.NodeID, req.Name); err != nil {
		return nil, h.fail(ctx, "Rename", err)
	}
	return &rpc.Empty{}, nil
}

func (h *driveHandler) Move(ctx context.Context, req *rpc.MoveRequest) (*rpc.Empty, error) {
	if err := h.gateway.Move(ctx, bearer(ctx), req.NodeID, common.StringPtr(req.NewParentID)); err != nil {
		return nil, h.fail(ctx, "Move", err)
	}
	return &rpc.Empty{}, nil
}

// maxTTLSeconds is the largest ttl that fits in a time.Duration.
const maxTTLSeconds = int64(math.MaxInt64 / time.Second)

func (h *driveHandler) Share(ctx context.Context, req *rpc.ShareRequest) (*rpc.ShareResponse, error) {
	var ttl *time.Duration
	if req.TTLSeconds != nil {
		if *req.TTLSeconds > maxTTLSeconds {
			return nil, h.fail(ctx, "Share", fmt.Errorf("%w: ttl exceeds %d seconds", common.ErrorValidation, maxTTLSeconds))
		}
		d := time.Duration(*req.TTLSeconds) * time.Second
		ttl = &d
	}
	s, err := h.gateway.Share(ctx, bearer(ctx), req.NodeID, req.ReadOnly, ttl)
	if err != nil {
		return nil, h.fail(ctx, "Share", err)
	}
	return &rpc.ShareResponse{Token: s.Token, NodeID: s.NodeID, ReadOnly: s.ReadOnly, ExpiresAt: s.ExpiresAt}, nil
}

func (h *driveHandler) Unshare(ctx context.Context, req *rpc.UnshareRequest) (*rpc.Empty, error) {
	if err := h.gateway.Unshare(ctx, bearer(ctx), req.Token); err != nil {
		return nil, h.fail(ctx, "Unshare", err)
	}
	return &rpc.Empty{}, nil
}

func (h *driveHandler) Upload(stream rpc.UploadServer) error {
	ctx := stream.Context()

	first, err := stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return status.Error(codes.InvalidArgument, "missing upload header")
		}
		return err
	}
	if first.Header == nil {
		return status.Error(codes.InvalidArgument, "missing upload header")
	}

	r := &uploadReader{stream: stream, pending: first.Chunk}
	n, err := h.gateway.Upload(ctx, bearer(ctx), common.StringPtr(first.Header.ParentID), first.Header.Name, r)
	if err != nil {
		if r.err != nil {
			return r.err
		}
		return h.fail(ctx, "Upload", err)
	}
	return stream.SendAndClose(&rpc.NodeResponse{Node: toRPCNode(n)})
}

// uploadReader turns the chunk messages of an upload stream into an
// io.Reader.
type uploadReader struct {
	stream  rpc.UploadServer
	pending []byte
	err     error
}

func (u *uploadReader) Read(p []byte) (int, error) {
	for len(u.pending) == 0 {
		msg, err := u.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, io.EOF
			}
			return 0, err
		}
		if msg.Header != nil {
			u.err = status.Error(codes.InvalidArgument, "unexpected header in upload stream")
			return 0, u.err
		}
		u.pending = msg.Chunk
	}
	n := copy(p, u.pending)
	u.pending = u.pending[n:]
	return n, nil
}

func (h *driveHandler) Download(req *rpc.DownloadRequest, stream rpc.DownloadServer) error {
	ctx := stream.Context()

	n, rc, err := h.gateway.Download(ctx, credentialsFromContext(ctx), req.NodeID)
	if err != nil {
		return h.fail(ctx, "Download", err)
	}
	defer rc.Close()

	if err := stream.Send(&rpc.DownloadMessage{Node: toRPCNode(n)}); err != nil {
		return err
	}

	buf := make([]byte, rpc.ChunkSize)
	for {
		k, err := io.ReadFull(rc, buf)
		if k > 0 {
			if sendErr := stream.Send(&rpc.DownloadMessage{Chunk: buf[:k]}); sendErr != nil {
				return sendErr
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return h.fail(ctx, "Download", err)
		}
	}
}
