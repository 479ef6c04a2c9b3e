package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/client/client"
	"github.com/dmitrijs2005/cloudrive/internal/client/config"
	"github.com/dmitrijs2005/cloudrive/internal/rpc"
)

// driveAPI is the client surface the CLI uses. *client.GRPCClient
// satisfies it; tests provide a fake.
type driveAPI interface {
	AccessToken() string
	SetAccessToken(token string)
	Register(ctx context.Context, userName, password string) (string, error)
	Login(ctx context.Context, userName, password string) error
	Logout(ctx context.Context) error
	Mkdir(ctx context.Context, parentID, name string) (*rpc.Node, error)
	List(ctx context.Context, parentID string) ([]*rpc.Node, error)
	Stat(ctx context.Context, nodeID string) (*rpc.Node, error)
	Delete(ctx context.Context, nodeID string) (int, error)
	Rename(ctx context.Context, nodeID, name string) error
	Move(ctx context.Context, nodeID, newParentID string) error
	Share(ctx context.Context, nodeID string, readOnly bool, ttl *time.Duration) (*rpc.ShareResponse, error)
	Unshare(ctx context.Context, token string) error
	Upload(ctx context.Context, parentID, name string, r io.Reader) (*rpc.Node, error)
	Download(ctx context.Context, nodeID, shareToken string, w io.Writer) (*rpc.Node, int64, error)
	Close() error
}

type App struct {
	config *config.Config
	api    driveAPI
	reader *bufio.Reader
	out    io.Writer

	// cwd is the stack of directories entered with cd; empty is the root.
	cwd []*rpc.Node
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	token, err := loadToken(c.TokenFile)
	if err != nil {
		return nil, err
	}
	apiClient.SetAccessToken(token)

	return newApp(c, apiClient, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, api driveAPI, in io.Reader, out io.Writer) *App {
	return &App{config: c, api: api, reader: bufio.NewReader(in), out: out}
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.api.Close()
	printlnFn("cloudrive client, type help for commands")
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) status() string {
	if !a.isLoggedIn() {
		return "not logged in"
	}
	return a.cwdPath()
}

func (a *App) isLoggedIn() bool {
	return a.api.AccessToken() != ""
}

func (a *App) cwdID() string {
	if len(a.cwd) == 0 {
		return ""
	}
	return a.cwd[len(a.cwd)-1].ID
}

func (a *App) cwdPath() string {
	p := "/"
	for i, n := range a.cwd {
		if i > 0 {
			p += "/"
		}
		p += n.Name
	}
	return p
}

// withTimeout bounds a unary call by the configured request timeout.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}
