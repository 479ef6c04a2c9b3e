package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/logging"
	"github.com/dmitrijs2005/cloudrive/internal/server/content"
	"github.com/dmitrijs2005/cloudrive/internal/server/metrics"
	"github.com/dmitrijs2005/cloudrive/internal/server/models"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/nodes"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TreeService maintains each owner's file tree. Every structural mutation
// runs under the owner's lock, so cycle checks and cascading deletes see a
// stable tree.
type TreeService struct {
	repomanager repomanager.RepositoryManager
	store       content.Store
	log         logging.Logger
}

func NewTreeService(m repomanager.RepositoryManager, store content.Store, log logging.Logger) *TreeService {
	return &TreeService{
		repomanager: m,
		store:       store,
		log:         log.With("module", "tree"),
	}
}

// CreateFile records an already stored content object as a file node.
func (s *TreeService) CreateFile(ctx context.Context, owner string, parentID *string, name, contentRef string, size int64) (*models.Node, error) {
	if err := common.ValidateName(name); err != nil {
		return nil, err
	}
	if contentRef == "" || size < 0 {
		return nil, fmt.Errorf("%w: file needs a content ref and a non-negative size", common.ErrorValidation)
	}
	return s.create(ctx, &models.Node{
		ID:         uuid.NewString(),
		OwnerID:    owner,
		ParentID:   parentID,
		Name:       name,
		Kind:       models.KindFile,
		Size:       size,
		ContentRef: &contentRef,
	})
}

func (s *TreeService) CreateDir(ctx context.Context, owner string, parentID *string, name string) (*models.Node, error) {
	if err := common.ValidateName(name); err != nil {
		return nil, err
	}
	return s.create(ctx, &models.Node{
		ID:       uuid.NewString(),
		OwnerID:  owner,
		ParentID: parentID,
		Name:     name,
		Kind:     models.KindDirectory,
	})
}

func (s *TreeService) create(ctx context.Context, node *models.Node) (*models.Node, error) {
	var created *models.Node
	err := s.repomanager.WithOwnerLock(ctx, node.OwnerID, func(ctx context.Context, repo nodes.Repository) error {
		if err := checkParent(ctx, repo, node.OwnerID, node.ParentID); err != nil {
			return err
		}
		n, err := repo.Create(ctx, node)
		if err != nil {
			return err
		}
		created = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "node created", "node_id", created.ID, "kind", created.Kind)
	return created, nil
}

// List returns the direct children of parentID (nil for the root) in
// creation order.
func (s *TreeService) List(ctx context.Context, owner string, parentID *string) ([]*models.Node, error) {
	repo := s.repomanager.Nodes()
	if parentID != nil {
		parent, err := getOwned(ctx, repo, owner, *parentID)
		if err != nil {
			return nil, err
		}
		if !parent.IsDir() {
			return nil, common.ErrorInvalidParent
		}
	}
	return repo.ListChildren(ctx, owner, parentID)
}

// Get returns one of owner's nodes.
func (s *TreeService) Get(ctx context.Context, owner, id string) (*models.Node, error) {
	return getOwned(ctx, s.repomanager.Nodes(), owner, id)
}

// Lookup returns a node regardless of its owner. It backs share downloads,
// where the caller is not the owner.
func (s *TreeService) Lookup(ctx context.Context, id string) (*models.Node, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Nodes().Get(ctx, id)
}

func (s *TreeService) Rename(ctx context.Context, owner, id, name string) error {
	if err := common.ValidateName(name); err != nil {
		return err
	}
	return s.repomanager.WithOwnerLock(ctx, owner, func(ctx context.Context, repo nodes.Repository) error {
		if _, err := getOwned(ctx, repo, owner, id); err != nil {
			return err
		}
		return repo.Rename(ctx, id, name)
	})
}

// Move re-parents a node. newParentID nil moves it to the root. Moving a
// node below itself fails with common.ErrorCycleDetected and changes
// nothing.
func (s *TreeService) Move(ctx context.Context, owner, id string, newParentID *string) error {
	return s.repomanager.WithOwnerLock(ctx, owner, func(ctx context.Context, repo nodes.Repository) error {
		if _, err := getOwned(ctx, repo, owner, id); err != nil {
			return err
		}
		if newParentID != nil && *newParentID == id {
			return common.ErrorCycleDetected
		}
		if err := checkParent(ctx, repo, owner, newParentID); err != nil {
			return err
		}
		if err := checkNotAncestor(ctx, repo, id, newParentID); err != nil {
			return err
		}
		return repo.Move(ctx, id, newParentID)
	})
}

// Delete removes a node and, for directories, every descendant. It returns
// the number of nodes removed. Content objects are removed after the
// metadata is gone; failures there are logged and leave orphans for the
// sweeper.
func (s *TreeService) Delete(ctx context.Context, owner, id string) (int, error) {
	var refs []deletedRef
	var count int

	err := s.repomanager.WithOwnerLock(ctx, owner, func(ctx context.Context, repo nodes.Repository) error {
		root, err := getOwned(ctx, repo, owner, id)
		if err != nil {
			return err
		}
		subtree, err := collectSubtree(ctx, repo, owner, root)
		if err != nil {
			return err
		}

		refs = refs[:0]
		// children first, so no remaining row ever loses its parent
		for i := len(subtree) - 1; i >= 0; i-- {
			n := subtree[i]
			if err := repo.Delete(ctx, n.ID); err != nil {
				return fmt.Errorf("error deleting node %s: %w", n.ID, err)
			}
			if n.ContentRef != nil {
				refs = append(refs, deletedRef{nodeID: n.ID, ref: *n.ContentRef})
			}
		}
		count = len(subtree)
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, r := range refs {
		if err := s.store.Remove(ctx, r.ref); err != nil {
			metrics.RecordContentRemoveFailure()
			s.log.Warn(ctx, "content removal failed", "content_ref", r.ref, "node_id", r.nodeID, "error", err)
		}
	}
	metrics.RecordNodesDeleted(count)
	s.log.Info(ctx, "node deleted", "node_id", id, "count", count)
	return count, nil
}

type deletedRef struct {
	nodeID string
	ref    string
}

// collectSubtree walks root's descendants breadth-first with an explicit
// queue. Parents always precede their children in the result.
func collectSubtree(ctx context.Context, repo nodes.Repository, owner string, root *models.Node) ([]*models.Node, error) {
	result := []*models.Node{root}
	visited := map[string]struct{}{root.ID: {}}

	for i := 0; i < len(result); i++ {
		n := result[i]
		if !n.IsDir() {
			continue
		}
		children, err := repo.ListChildren(ctx, owner, &n.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if _, seen := visited[c.ID]; seen {
				continue
			}
			visited[c.ID] = struct{}{}
			result = append(result, c)
		}
	}
	return result, nil
}

// checkNotAncestor walks up from parentID to the root and fails if id is on
// the way.
func checkNotAncestor(ctx context.Context, repo nodes.Repository, id string, parentID *string) error {
	visited := make(map[string]struct{})
	for cur := parentID; cur != nil; {
		if *cur == id {
			return common.ErrorCycleDetected
		}
		if _, seen := visited[*cur]; seen {
			return fmt.Errorf("%w: tree already contains a cycle at %s", common.ErrorInternal, *cur)
		}
		visited[*cur] = struct{}{}

		n, err := repo.Get(ctx, *cur)
		if err != nil {
			return err
		}
		cur = n.ParentID
	}
	return nil
}

// checkParent fails with common.ErrorInvalidParent unless parentID is nil or
// names an existing directory of owner.
func checkParent(ctx context.Context, repo nodes.Repository, owner string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if uuid.Validate(*parentID) != nil {
		return common.ErrorInvalidParent
	}
	p, err := repo.Get(ctx, *parentID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorInvalidParent
		}
		return err
	}
	if p.OwnerID != owner || !p.IsDir() {
		return common.ErrorInvalidParent
	}
	return nil
}

func getOwned(ctx context.Context, repo nodes.Repository, owner, id string) (*models.Node, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}
	n, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.OwnerID != owner {
		return nil, common.ErrorForbidden
	}
	return n, nil
}
