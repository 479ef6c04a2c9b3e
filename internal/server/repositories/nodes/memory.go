package nodes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/server/models"
)

var errHasChildren = errors.New("node still has children")

// MemoryRepository keeps nodes in process memory. It enforces the same
// parent constraint as the SQL schema: a row with children cannot be deleted.
type MemoryRepository struct {
	mu    sync.RWMutex
	nodes map[string]models.Node
	seq   int64
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nodes: make(map[string]models.Node), now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, node *models.Node) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[node.ID]; ok {
		return nil, fmt.Errorf("db error: duplicate node id %s", node.ID)
	}
	if node.ParentID != nil {
		if _, ok := r.nodes[*node.ParentID]; !ok {
			return nil, fmt.Errorf("db error: parent %s does not exist", *node.ParentID)
		}
	}

	r.seq++
	now := r.now().UTC()
	node.Seq = r.seq
	node.CreatedAt = now
	node.UpdatedAt = now
	r.nodes[node.ID] = cloneNode(*node)
	return node, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.nodes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := cloneNode(n)
	return &c, nil
}

func (r *MemoryRepository) ListChildren(_ context.Context, ownerID string, parentID *string) ([]*models.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Node, 0)
	for _, n := range r.nodes {
		if n.OwnerID != ownerID || !n.SameParent(parentID) {
			continue
		}
		c := cloneNode(n)
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

func (r *MemoryRepository) Rename(_ context.Context, id string, name string) error {
	return r.update(id, func(n *models.Node) error {
		n.Name = name
		return nil
	})
}

func (r *MemoryRepository) Move(_ context.Context, id string, parentID *string) error {
	return r.update(id, func(n *models.Node) error {
		if parentID != nil {
			if _, ok := r.nodes[*parentID]; !ok {
				return fmt.Errorf("db error: parent %s does not exist", *parentID)
			}
		}
		n.ParentID = cloneString(parentID)
		return nil
	})
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[id]; !ok {
		return common.ErrorNotFound
	}
	for _, n := range r.nodes {
		if n.ParentID != nil && *n.ParentID == id {
			return fmt.Errorf("db error: %w", errHasChildren)
		}
	}
	delete(r.nodes, id)
	return nil
}

func (r *MemoryRepository) ContentRefExists(_ context.Context, ref string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.nodes {
		if n.ContentRef != nil && *n.ContentRef == ref {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) update(id string, fn func(n *models.Node) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[id]
	if !ok {
		return common.ErrorNotFound
	}
	if err := fn(&n); err != nil {
		return err
	}
	n.UpdatedAt = r.now().UTC()
	r.nodes[id] = n
	return nil
}

func cloneNode(n models.Node) models.Node {
	n.ParentID = cloneString(n.ParentID)
	n.ContentRef = cloneString(n.ContentRef)
	return n
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}
