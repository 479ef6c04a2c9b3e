// Package gateway is the single entry point for every externally visible
// operation. It resolves the caller's credentials, applies the access
// policy and delegates to the services.
//
// Access policy:
//   - a bearer token of the node's owner grants every operation
//   - a share token grants content retrieval of exactly its node, while the
//     share is active and the node still exists as a file
//   - everything else fails with common.ErrorUnauthorized (no valid
//     credential) or common.ErrorForbidden (valid bearer, not the owner)
package gateway

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/logging"
	"github.com/dmitrijs2005/cloudrive/internal/server/content"
	"github.com/dmitrijs2005/cloudrive/internal/server/metrics"
	"github.com/dmitrijs2005/cloudrive/internal/server/models"
	"github.com/dmitrijs2005/cloudrive/internal/server/services"
)

// Credentials are whatever the caller presented. Either field may be empty.
type Credentials struct {
	Bearer     string
	ShareToken string
}

type Gateway struct {
	users   *services.UserService
	tree    *services.TreeService
	shares  *services.ShareService
	store   content.Store
	uploads *content.InFlight
	log     logging.Logger
}

type Option func(*Gateway)

// WithUploads shares the in-flight upload set with the orphan sweeper.
func WithUploads(u *content.InFlight) Option {
	return func(g *Gateway) {
		g.uploads = u
	}
}

func New(users *services.UserService, tree *services.TreeService, shares *services.ShareService,
	store content.Store, log logging.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		users:   users,
		tree:    tree,
		shares:  shares,
		store:   store,
		uploads: content.NewInFlight(),
		log:     log.With("module", "gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Register(ctx context.Context, username, password string) (*models.User, error) {
	u, err := g.users.Register(ctx, username, password)
	metrics.RecordAuth("register", authResult(err))
	return u, err
}

// Login returns a new bearer token.
func (g *Gateway) Login(ctx context.Context, username, password string) (string, error) {
	token, err := g.users.Login(ctx, username, password)
	metrics.RecordAuth("login", authResult(err))
	metrics.SetActiveSessions(g.users.ActiveSessions())
	return token, err
}

// Logout ends the bearer's session. Unknown tokens are ignored.
func (g *Gateway) Logout(ctx context.Context, bearer string) error {
	g.users.Logout(ctx, bearer)
	metrics.SetActiveSessions(g.users.ActiveSessions())
	return nil
}

// Upload streams r into the content store and then records it as a file
// named name under parentID. No tree lock is held while bytes move. When
// the stream or the insert fails no node exists afterwards.
func (g *Gateway) Upload(ctx context.Context, bearer string, parentID *string, name string, r io.Reader) (*models.Node, error) {
	owner, err := g.authenticate(ctx, bearer)
	if err != nil {
		return nil, err
	}
	if err := common.ValidateName(name); err != nil {
		metrics.RecordUpload(0, false)
		return nil, err
	}

	done := g.uploads.Begin(owner)
	defer done()

	ref, size, err := g.store.Put(ctx, owner, r)
	if err != nil {
		metrics.RecordUpload(0, false)
		g.log.Warn(ctx, "upload stream failed", "owner_id", owner, "error", err)
		return nil, err
	}

	node, err := g.tree.CreateFile(ctx, owner, parentID, name, ref, size)
	if err != nil {
		metrics.RecordUpload(0, false)
		if rmErr := g.store.Remove(context.WithoutCancel(ctx), ref); rmErr != nil {
			g.log.Warn(ctx, "removing unreferenced upload failed", "content_ref", ref, "error", rmErr)
		}
		return nil, err
	}

	metrics.RecordUpload(size, true)
	g.log.Info(ctx, "file uploaded", "node_id", node.ID, "size", size)
	return node, nil
}

func (g *Gateway) Mkdir(ctx context.Context, bearer string, parentID *string, name string) (*models.Node, error) {
	owner, err := g.authenticate(ctx, bearer)
	if err != nil {
		return nil, err
	}
	return g.recordDenied(g.tree.CreateDir(ctx, owner, parentID, name))
}

func (g *Gateway) List(ctx context.Context, bearer string, parentID *string) ([]*models.Node, error) {
	owner, err := g.authenticate(ctx, bearer)
	if err != nil {
		return nil, err
	}
	nodes, err := g.tree.List(ctx, owner, parentID)
	g.countDenied(err)
	return nodes, err
}

func (g *Gateway) Stat(ctx context.Context, bearer, nodeID string) (*models.Node, error) {
	owner, err := g.authenticate(ctx, bearer)
	if err != nil {
		return nil, err
	}
	return g.recordDenied(g.tree.Get(ctx, owner, nodeID))
}

// Download opens the content of nodeID for whoever presents creds. The
// caller must close the returned reader.
func (g *Gateway) Download(ctx context.Context, creds Credentials, nodeID string) (*models.Node, io.ReadCloser, error) {
	node, via, err := g.authorizeDownload(ctx, creds, nodeID)
	if err != nil {
		g.countDenied(err)
		metrics.RecordDownload(via, false)
		return nil, nil, err
	}
	if node.IsDir() || node.ContentRef == nil {
		metrics.RecordDownload(via, false)
		return nil, nil, common.ErrorNotFound
	}

	rc, err := g.store.Open(ctx, *node.ContentRef)
	if err != nil {
		metrics.RecordDownload(via, false)
		if errors.Is(err, common.ErrorNotFound) {
			g.log.Error(ctx, "content missing for file node", "node_id", node.ID, "content_ref", *node.ContentRef)
		}
		return nil, nil, err
	}

	metrics.RecordDownload(via, true)
	return node, &meteredReader{rc: rc}, nil
}

// authorizeDownload applies the access policy. via is "owner", "share" or
// "none" for metrics.
func (g *Gateway) authorizeDownload(ctx context.Context, creds Credentials, nodeID string) (*models.Node, string, error) {
	var userID string
	if creds.Bearer != "" {
		if id, err := g.users.Authenticate(ctx, creds.Bearer); err == nil {
			userID = id
		}
	}

	var lookupErr error
	if userID != "" {
		node, err := g.tree.Lookup(ctx, nodeID)
		switch {
		case err == nil && node.OwnerID == userID:
			return node, "owner", nil
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return nil, "owner", err
		}
		lookupErr = err
	}

	node, granted, err := g.viaShare(ctx, creds.ShareToken, nodeID)
	if granted {
		return node, "share", err
	}
	if err != nil {
		return nil, "share", err
	}

	switch {
	case userID == "":
		return nil, "none", common.ErrorUnauthorized
	case lookupErr != nil:
		return nil, "none", lookupErr
	default:
		return nil, "none", common.ErrorForbidden
	}
}

// viaShare reports whether token grants access to nodeID. A grant for a
// node that no longer exists fails with common.ErrorNotFound.
func (g *Gateway) viaShare(ctx context.Context, token, nodeID string) (*models.Node, bool, error) {
	if token == "" {
		return nil, false, nil
	}
	share, err := g.shares.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if share.NodeID != nodeID {
		return nil, false, nil
	}

	node, err := g.tree.Lookup(ctx, nodeID)
	if err != nil {
		return nil, true, err
	}
	return node, true, nil
}

// Delete removes nodeID and its descendants, returning how many nodes went.
func (g *Gateway) Delete(ctx context.Context, bearer, nodeID string) (int, error) {
	owner, err := g.authenticate(ctx, bearer)
	if err != nil {
		return 0, err
	}
	n, err := g.tree.Delete(ctx, owner, nodeID)
	g.countDenied(err)
	return n, err
}

func (g *Gateway) Rename(ctx context.Context, bearer, nodeID, name string) error {
	owner, err := g.authenticate(ctx, bearer)
	if err != nil {
		return err
	}
	err = g.tree.Rename(ctx, owner, nodeID, name)
	g.countDenied(err)
	return err
}

func (g *Gateway) Move(ctx context.Context, bearer, nodeID string, newParentID *string) error {
	owner, err := g.authenticate(ctx, bearer)
	if err != nil {
		return err
	}
	err = g.tree.Move(ctx, owner, nodeID, newParentID)
	g.countDenied(err)
	return err
}

// Share creates a public share for one of the bearer's nodes. A nil ttl
// never expires.
func (g *Gateway) Share(ctx context.Context, bearer, nodeID string, readOnly bool, ttl *time.Duration) (*models.Share, error) {
	owner, err := g.authenticate(ctx, bearer)
	if err != nil {
		return nil, err
	}
	if _, err := g.recordDenied(g.tree.Get(ctx, owner, nodeID)); err != nil {
		return nil, err
	}
	s, err := g.shares.Create(ctx, owner, nodeID, readOnly, ttl)
	if err != nil {
		return nil, err
	}
	metrics.RecordShareCreated()
	return s, nil
}

// Unshare revokes a share created by the bearer. Unknown tokens succeed.
func (g *Gateway) Unshare(ctx context.Context, bearer, token string) error {
	owner, err := g.authenticate(ctx, bearer)
	if err != nil {
		return err
	}
	s, err := g.shares.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}
	if s.CreatedBy != owner {
		metrics.RecordDenied("forbidden")
		return common.ErrorForbidden
	}
	if err := g.shares.Revoke(ctx, token); err != nil {
		return err
	}
	metrics.RecordShareRevoked()
	return nil
}

func (g *Gateway) authenticate(ctx context.Context, bearer string) (string, error) {
	userID, err := g.users.Authenticate(ctx, bearer)
	if err != nil {
		metrics.RecordDenied("unauthorized")
		return "", err
	}
	return userID, nil
}

func (g *Gateway) recordDenied(n *models.Node, err error) (*models.Node, error) {
	g.countDenied(err)
	return n, err
}

func (g *Gateway) countDenied(err error) {
	switch {
	case errors.Is(err, common.ErrorForbidden):
		metrics.RecordDenied("forbidden")
	case errors.Is(err, common.ErrorUnauthorized):
		metrics.RecordDenied("unauthorized")
	}
}

func authResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, common.ErrorDuplicateUsername):
		return "duplicate"
	case errors.Is(err, common.ErrorInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, common.ErrorValidation):
		return "invalid"
	default:
		return "error"
	}
}

// meteredReader counts downloaded bytes as they are read.
type meteredReader struct {
	rc io.ReadCloser
}

func (m *meteredReader) Read(p []byte) (int, error) {
	n, err := m.rc.Read(p)
	metrics.AddBytesDownloaded(int64(n))
	return n, err
}

func (m *meteredReader) Close() error {
	return m.rc.Close()
}
