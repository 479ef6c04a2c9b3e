package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "cloudrive.Drive"

const (
	MethodRegister = "/" + ServiceName + "/Register"
	MethodLogin    = "/" + ServiceName + "/Login"
	MethodLogout   = "/" + ServiceName + "/Logout"
	MethodMkdir    = "/" + ServiceName + "/Mkdir"
	MethodList     = "/" + ServiceName + "/List"
	MethodStat     = "/" + ServiceName + "/Stat"
	MethodDelete   = "/" + ServiceName + "/Delete"
	MethodRename   = "/" + ServiceName + "/Rename"
	MethodMove     = "/" + ServiceName + "/Move"
	MethodShare    = "/" + ServiceName + "/Share"
	MethodUnshare  = "/" + ServiceName + "/Unshare"
	MethodUpload   = "/" + ServiceName + "/Upload"
	MethodDownload = "/" + ServiceName + "/Download"
)

// PublicMethods can be called without a bearer token. Download accepts a
// share token instead.
var PublicMethods = map[string]bool{
	MethodRegister: true,
	MethodLogin:    true,
	MethodDownload: true,
}

type (
	UploadServer   = grpc.ClientStreamingServer[UploadMessage, NodeResponse]
	DownloadServer = grpc.ServerStreamingServer[DownloadMessage]
	UploadClient   = grpc.ClientStreamingClient[UploadMessage, NodeResponse]
	DownloadClient = grpc.ServerStreamingClient[DownloadMessage]
)

// DriveServer is implemented by the cloudrive server.
type DriveServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)
	Mkdir(context.Context, *MkdirRequest) (*NodeResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Stat(context.Context, *StatRequest) (*NodeResponse, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
	Rename(context.Context, *RenameRequest) (*Empty, error)
	Move(context.Context, *MoveRequest) (*Empty, error)
	Share(context.Context, *ShareRequest) (*ShareResponse, error)
	Unshare(context.Context, *UnshareRequest) (*Empty, error)
	Upload(UploadServer) error
	Download(*DownloadRequest, DownloadServer) error
}

func RegisterDriveServer(s grpc.ServiceRegistrar, srv DriveServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req, Res any](fullMethod string, call func(DriveServer, context.Context, *Req) (*Res, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DriveServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DriveServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func uploadHandler(srv any, stream grpc.ServerStream) error {
	return srv.(DriveServer).Upload(&grpc.GenericServerStream[UploadMessage, NodeResponse]{ServerStream: stream})
}

func downloadHandler(srv any, stream grpc.ServerStream) error {
	in := new(DownloadRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(DriveServer).Download(in, &grpc.GenericServerStream[DownloadRequest, DownloadMessage]{ServerStream: stream})
}

// ServiceDesc describes cloudrive.Drive for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DriveServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(MethodRegister, DriveServer.Register)},
		{MethodName: "Login", Handler: unary(MethodLogin, DriveServer.Login)},
		{MethodName: "Logout", Handler: unary(MethodLogout, DriveServer.Logout)},
		{MethodName: "Mkdir", Handler: unary(MethodMkdir, DriveServer.Mkdir)},
		{MethodName: "List", Handler: unary(MethodList, DriveServer.List)},
		{MethodName: "Stat", Handler: unary(MethodStat, DriveServer.Stat)},
		{MethodName: "Delete", Handler: unary(MethodDelete, DriveServer.Delete)},
		{MethodName: "Rename", Handler: unary(MethodRename, DriveServer.Rename)},
		{MethodName: "Move", Handler: unary(MethodMove, DriveServer.Move)},
		{MethodName: "Share", Handler: unary(MethodShare, DriveServer.Share)},
		{MethodName: "Unshare", Handler: unary(MethodUnshare, DriveServer.Unshare)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Upload", Handler: uploadHandler, ClientStreams: true},
		{StreamName: "Download", Handler: downloadHandler, ServerStreams: true},
	},
	Metadata: "cloudrive/drive",
}

// DriveClient is a typed client for cloudrive.Drive.
type DriveClient struct {
	cc grpc.ClientConnInterface
}

func NewDriveClient(cc grpc.ClientConnInterface) *DriveClient {
	return &DriveClient{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func invoke[Req, Res any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Res, error) {
	out := new(Res)
	if err := cc.Invoke(ctx, method, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DriveClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterRequest, RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *DriveClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginRequest, LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *DriveClient) Logout(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty, Empty](ctx, c.cc, MethodLogout, in, opts)
}

func (c *DriveClient) Mkdir(ctx context.Context, in *MkdirRequest, opts ...grpc.CallOption) (*NodeResponse, error) {
	return invoke[MkdirRequest, NodeResponse](ctx, c.cc, MethodMkdir, in, opts)
}

func (c *DriveClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListRequest, ListResponse](ctx, c.cc, MethodList, in, opts)
}

func (c *DriveClient) Stat(ctx context.Context, in *StatRequest, opts ...grpc.CallOption) (*NodeResponse, error) {
	return invoke[StatRequest, NodeResponse](ctx, c.cc, MethodStat, in, opts)
}

func (c *DriveClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteRequest, DeleteResponse](ctx, c.cc, MethodDelete, in, opts)
}

func (c *DriveClient) Rename(ctx context.Context, in *RenameRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[RenameRequest, Empty](ctx, c.cc, MethodRename, in, opts)
}

func (c *DriveClient) Move(ctx context.Context, in *MoveRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[MoveRequest, Empty](ctx, c.cc, MethodMove, in, opts)
}

func (c *DriveClient) Share(ctx context.Context, in *ShareRequest, opts ...grpc.CallOption) (*ShareResponse, error) {
	return invoke[ShareRequest, ShareResponse](ctx, c.cc, MethodShare, in, opts)
}

func (c *DriveClient) Unshare(ctx context.Context, in *UnshareRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[UnshareRequest, Empty](ctx, c.cc, MethodUnshare, in, opts)
}

// Upload opens the upload stream. Send the header first, then chunks, then
// call CloseAndRecv.
func (c *DriveClient) Upload(ctx context.Context, opts ...grpc.CallOption) (UploadClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MethodUpload, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[UploadMessage, NodeResponse]{ClientStream: stream}, nil
}

// Download opens the download stream for in.NodeID.
func (c *DriveClient) Download(ctx context.Context, in *DownloadRequest, opts ...grpc.CallOption) (DownloadClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[1], MethodDownload, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[DownloadRequest, DownloadMessage]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
