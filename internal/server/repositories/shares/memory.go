package shares

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/server/models"
)

// MemoryRepository keeps shares in process memory, keyed by token.
type MemoryRepository struct {
	mu      sync.RWMutex
	byToken map[string]models.Share
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byToken: make(map[string]models.Share), now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, share *models.Share) (*models.Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[share.Token]; ok {
		return nil, fmt.Errorf("db error: duplicate share token")
	}
	share.CreatedAt = r.now().UTC()
	r.byToken[share.Token] = cloneShare(*share)
	return share, nil
}

func (r *MemoryRepository) GetByToken(_ context.Context, token string) (*models.Share, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := cloneShare(s)
	return &c, nil
}

func (r *MemoryRepository) DeleteByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byToken, token)
	return nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, s := range r.byToken {
		if s.ExpiresAt != nil && !now.Before(*s.ExpiresAt) {
			delete(r.byToken, token)
			n++
		}
	}
	return n, nil
}

func cloneShare(s models.Share) models.Share {
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		s.ExpiresAt = &t
	}
	return s
}
