package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/rpc"
)

var (
	errUsage       = errors.New("wrong number of arguments, type help")
	errNotLoggedIn = errors.New("not logged in")
	errNotDir      = errors.New("not a directory")
)

// Test seams for interactive input.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func (a *App) credentials() (string, []byte, error) {
	userName, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if _, err := a.api.Register(ctx, userName, string(password)); err != nil {
		return err
	}
	printlnFn("Registered, you can log in now")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.api.Login(ctx, userName, string(password)); err != nil {
		return err
	}
	a.cwd = nil
	if err := saveToken(a.config.TokenFile, a.api.AccessToken()); err != nil {
		printlnFn("Warning: token not saved:", err)
	}
	printlnFn("Logged in as", userName)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	err := a.api.Logout(ctx)
	// The local token goes away even when the server call fails.
	a.api.SetAccessToken("")
	a.cwd = nil
	if serr := saveToken(a.config.TokenFile, ""); serr != nil {
		printlnFn("Warning: token not removed:", serr)
	}
	return err
}

func (a *App) List(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	parentID := a.cwdID()
	if len(args) == 1 {
		parentID = args[0]
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	nodes, err := a.api.List(ctx, parentID)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		printlnFn("(empty)")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, n := range nodes {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", kindMark(n), n.ID, n.Size,
			n.UpdatedAt.Local().Format(time.DateTime), n.Name)
	}
	return w.Flush()
}

func kindMark(n *rpc.Node) string {
	if n.IsDir() {
		return "d"
	}
	return "-"
}

func (a *App) Cd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	switch args[0] {
	case "/":
		a.cwd = nil
		return nil
	case "..":
		if len(a.cwd) > 0 {
			a.cwd = a.cwd[:len(a.cwd)-1]
		}
		return nil
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	n, err := a.api.Stat(ctx, args[0])
	if err != nil {
		return err
	}
	if !n.IsDir() {
		return errNotDir
	}
	a.cwd = append(a.cwd, n)
	return nil
}

func (a *App) Mkdir(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	n, err := a.api.Mkdir(ctx, a.cwdID(), args[0])
	if err != nil {
		return err
	}
	printlnFn("Created", n.ID)
	return nil
}

func (a *App) Stat(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	n, err := a.api.Stat(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ID:       %s\nName:     %s\nKind:     %s\nSize:     %d\nParent:   %s\nCreated:  %s\nModified: %s\n",
		n.ID, n.Name, n.Kind, n.Size, parentLabel(n.ParentID),
		n.CreatedAt.Local().Format(time.DateTime), n.UpdatedAt.Local().Format(time.DateTime))
	return nil
}

func parentLabel(id string) string {
	if id == "" {
		return "/"
	}
	return id
}

// Put uploads a local file into the current directory. Streams are not
// bounded by the request timeout.
func (a *App) Put(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	path := args[0]
	name := filepath.Base(path)
	if len(args) == 2 {
		name = args[1]
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := a.api.Upload(ctx, a.cwdID(), name, f)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Uploaded %s (%d bytes) as %s", n.Name, n.Size, n.ID))
	return nil
}

// Get downloads a file to a local path. A share token lets a user who
// is not logged in retrieve a shared file.
func (a *App) Get(ctx context.Context, args []string) (err error) {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	var shareToken string
	if len(args) == 3 {
		shareToken = args[2]
	}
	if shareToken == "" && !a.isLoggedIn() {
		return errNotLoggedIn
	}

	path := args[1]
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	n, written, err := a.api.Download(ctx, args[0], shareToken, f)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Downloaded %s (%d bytes) to %s", n.Name, written, path))
	return nil
}

func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	count, err := a.api.Delete(ctx, args[0])
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Deleted %d node(s)", count))
	return nil
}

func (a *App) Move(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	parentID := args[1]
	if parentID == "/" {
		parentID = ""
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.api.Move(ctx, args[0], parentID); err != nil {
		return err
	}
	printlnFn("Moved")
	return nil
}

func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.api.Rename(ctx, args[0], args[1]); err != nil {
		return err
	}
	printlnFn("Renamed")
	return nil
}

// Share creates a read-only share. The optional ttl uses Go duration
// syntax, e.g. 30m or 24h.
func (a *App) Share(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	var ttl *time.Duration
	if len(args) == 2 {
		d, err := time.ParseDuration(args[1])
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: bad ttl %q", common.ErrorValidation, args[1])
		}
		ttl = &d
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	sh, err := a.api.Share(ctx, args[0], true, ttl)
	if err != nil {
		return err
	}
	printlnFn("Share token:", sh.Token)
	if sh.ExpiresAt != nil {
		printlnFn("Expires:", sh.ExpiresAt.Local().Format(time.DateTime))
	}
	return nil
}

func (a *App) Unshare(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.api.Unshare(ctx, args[0]); err != nil {
		return err
	}
	printlnFn("Share revoked")
	return nil
}
