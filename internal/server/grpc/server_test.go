package grpc

import (
	"bytes"
	"context"
	"io"
	"math"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/cryptox"
	"github.com/dmitrijs2005/cloudrive/internal/logging"
	"github.com/dmitrijs2005/cloudrive/internal/rpc"
	"github.com/dmitrijs2005/cloudrive/internal/server/content"
	"github.com/dmitrijs2005/cloudrive/internal/server/gateway"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cloudrive/internal/server/services"
	"github.com/dmitrijs2005/cloudrive/internal/server/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func newTestGateway() *gateway.Gateway {
	log := logging.Nop()
	rm := repomanager.NewMemoryRepositoryManager()
	store := content.NewMemoryStore()
	cheap := cryptox.Params{Time: 1, Memory: 8, Threads: 1, KeyLen: 16, SaltLen: 8}

	users := services.NewUserService(rm, sessions.NewRegistry([]byte("grpc-test"), 0, log), log,
		services.WithHashParams(cheap))
	return gateway.New(users, services.NewTreeService(rm, store, log), services.NewShareService(rm, log), store, log)
}

// startServer serves a fresh in-memory stack over bufconn.
func startServer(t *testing.T) *rpc.DriveClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer("bufnet", logging.Nop(), newTestGateway())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-done
	})
	return rpc.NewDriveClient(conn)
}

func bearerCtx(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, token)
}

func login(t *testing.T, c *rpc.DriveClient, name string) string {
	t.Helper()
	ctx := context.Background()
	_, err := c.Register(ctx, &rpc.RegisterRequest{Username: name, Password: "pw"})
	require.NoError(t, err)
	resp, err := c.Login(ctx, &rpc.LoginRequest{Username: name, Password: "pw"})
	require.NoError(t, err)
	return resp.AccessToken
}

func upload(t *testing.T, c *rpc.DriveClient, ctx context.Context, parent, name string, payload []byte) *rpc.Node {
	t.Helper()
	stream, err := c.Upload(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Send(&rpc.UploadMessage{Header: &rpc.UploadHeader{ParentID: parent, Name: name}}))
	for len(payload) > 0 {
		n := min(len(payload), 1000)
		require.NoError(t, stream.Send(&rpc.UploadMessage{Chunk: payload[:n]}))
		payload = payload[n:]
	}
	resp, err := stream.CloseAndRecv()
	require.NoError(t, err)
	return resp.Node
}

func download(ctx context.Context, c *rpc.DriveClient, nodeID string) (*rpc.Node, []byte, error) {
	stream, err := c.Download(ctx, &rpc.DownloadRequest{NodeID: nodeID})
	if err != nil {
		return nil, nil, err
	}
	first, err := stream.Recv()
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			return first.Node, buf.Bytes(), nil
		}
		if err != nil {
			return nil, nil, err
		}
		buf.Write(msg.Chunk)
	}
}

func TestServer_EndToEnd(t *testing.T) {
	c := startServer(t)
	ctx := bearerCtx(login(t, c, "alice"))

	docs, err := c.Mkdir(ctx, &rpc.MkdirRequest{Name: "docs"})
	require.NoError(t, err)
	assert.True(t, docs.Node.IsDir())

	payload := bytes.Repeat([]byte("0123456789"), 10_000)
	file := upload(t, c, ctx, docs.Node.ID, "big.bin", payload)
	assert.Equal(t, int64(len(payload)), file.Size)
	assert.Equal(t, docs.Node.ID, file.ParentID)

	list, err := c.List(ctx, &rpc.ListRequest{ParentID: docs.Node.ID})
	require.NoError(t, err)
	require.Len(t, list.Nodes, 1)
	assert.Equal(t, "big.bin", list.Nodes[0].Name)

	node, got, err := download(ctx, c, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, node.ID)
	assert.Equal(t, payload, got)

	_, err = c.Rename(ctx, &rpc.RenameRequest{NodeID: file.ID, Name: "renamed.bin"})
	require.NoError(t, err)
	_, err = c.Move(ctx, &rpc.MoveRequest{NodeID: file.ID})
	require.NoError(t, err)
	st, err := c.Stat(ctx, &rpc.StatRequest{NodeID: file.ID})
	require.NoError(t, err)
	assert.Equal(t, "renamed.bin", st.Node.Name)
	assert.Empty(t, st.Node.ParentID)

	_, err = c.Move(ctx, &rpc.MoveRequest{NodeID: docs.Node.ID, NewParentID: docs.Node.ID})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	del, err := c.Delete(ctx, &rpc.DeleteRequest{NodeID: docs.Node.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, del.Deleted)

	_, err = c.Logout(ctx, &rpc.Empty{})
	require.NoError(t, err)
	_, err = c.List(ctx, &rpc.ListRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_Sharing(t *testing.T) {
	c := startServer(t)
	alice := bearerCtx(login(t, c, "alice"))
	bob := bearerCtx(login(t, c, "bob"))

	file := upload(t, c, alice, "", "a.txt", []byte("hello"))

	share, err := c.Share(alice, &rpc.ShareRequest{NodeID: file.ID, ReadOnly: true})
	require.NoError(t, err)
	assert.Nil(t, share.ExpiresAt)

	anon := metadata.AppendToOutgoingContext(context.Background(), common.ShareTokenHeaderName, share.Token)
	_, got, err := download(anon, c, file.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	_, _, err = download(bob, c, file.ID)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, _, err = download(context.Background(), c, file.ID)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = c.Unshare(bob, &rpc.UnshareRequest{Token: share.Token})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = c.Unshare(alice, &rpc.UnshareRequest{Token: share.Token})
	require.NoError(t, err)
	_, _, err = download(anon, c, file.ID)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	zero := int64(0)
	expired, err := c.Share(alice, &rpc.ShareRequest{NodeID: file.ID, ReadOnly: true, TTLSeconds: &zero})
	require.NoError(t, err)
	require.NotNil(t, expired.ExpiresAt)
	expiredCtx := metadata.AppendToOutgoingContext(context.Background(), common.ShareTokenHeaderName, expired.Token)
	_, _, err = download(expiredCtx, c, file.ID)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_ShareTTLBounds(t *testing.T) {
	c := startServer(t)
	alice := bearerCtx(login(t, c, "alice"))
	file := upload(t, c, alice, "", "a.txt", []byte("hello"))

	maxTTL := maxTTLSeconds
	longest, err := c.Share(alice, &rpc.ShareRequest{NodeID: file.ID, ReadOnly: true, TTLSeconds: &maxTTL})
	require.NoError(t, err)
	require.NotNil(t, longest.ExpiresAt)
	assert.True(t, longest.ExpiresAt.After(time.Now().AddDate(200, 0, 0)), "ttl must not wrap")

	for _, secs := range []int64{maxTTLSeconds + 1, 18446744074, math.MaxInt64} {
		ttl := secs
		_, err := c.Share(alice, &rpc.ShareRequest{NodeID: file.ID, ReadOnly: true, TTLSeconds: &ttl})
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "ttl %d", secs)
		assert.Equal(t, common.ErrorValidation.Error(), status.Convert(err).Message())
	}

	negative := int64(-1)
	_, err = c.Share(alice, &rpc.ShareRequest{NodeID: file.ID, ReadOnly: true, TTLSeconds: &negative})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_MissingToken(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	_, err := c.List(ctx, &rpc.ListRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "missing token", status.Convert(err).Message())

	stream, err := c.Upload(ctx)
	require.NoError(t, err)
	_ = stream.Send(&rpc.UploadMessage{Header: &rpc.UploadHeader{Name: "f"}})
	_, err = stream.CloseAndRecv()
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_ErrorCodes(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	_, err := c.Register(ctx, &rpc.RegisterRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	_, err = c.Register(ctx, &rpc.RegisterRequest{Username: "alice", Password: "pw"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = c.Login(ctx, &rpc.LoginRequest{Username: "alice", Password: "nope"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, common.ErrorInvalidCredentials.Error(), status.Convert(err).Message())

	resp, err := c.Login(ctx, &rpc.LoginRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	authed := bearerCtx(resp.AccessToken)

	_, err = c.Stat(authed, &rpc.StatRequest{NodeID: "00000000-0000-0000-0000-000000000000"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.Mkdir(authed, &rpc.MkdirRequest{Name: "a/b"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, common.ErrorInvalidName.Error(), status.Convert(err).Message())

	_, err = c.Mkdir(authed, &rpc.MkdirRequest{ParentID: "missing", Name: "x"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, common.ErrorInvalidParent.Error(), status.Convert(err).Message())
}

func TestServer_UploadWithoutHeader(t *testing.T) {
	c := startServer(t)
	ctx := bearerCtx(login(t, c, "alice"))

	stream, err := c.Upload(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Send(&rpc.UploadMessage{Chunk: []byte("data")}))
	_, err = stream.CloseAndRecv()
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	srv := NewGRPCServer("bufnet", logging.Nop(), newTestGateway())
	lis := bufconn.Listen(1 << 16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop(), newTestGateway())
	err := srv.Run(context.Background())
	assert.Error(t, err)
}
