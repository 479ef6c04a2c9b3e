package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/logging"
	"github.com/dmitrijs2005/cloudrive/internal/server/models"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const shareTokenBytes = 32

// ShareService issues and resolves public share tokens. Expiry is checked
// lazily on every resolve; Sweep only reclaims storage.
type ShareService struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
	log         logging.Logger
}

func NewShareService(m repomanager.RepositoryManager, log logging.Logger) *ShareService {
	return &ShareService{
		repomanager: m,
		now:         time.Now,
		log:         log.With("module", "shares"),
	}
}

// Create issues a share for nodeID on behalf of createdBy. A nil ttl never
// expires; a zero ttl is expired on creation.
func (s *ShareService) Create(ctx context.Context, createdBy, nodeID string, readOnly bool, ttl *time.Duration) (*models.Share, error) {
	if ttl != nil && *ttl < 0 {
		return nil, fmt.Errorf("%w: negative ttl", common.ErrorValidation)
	}

	token, err := common.MakeRandHexString(shareTokenBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}

	share := &models.Share{
		ID:        uuid.NewString(),
		NodeID:    nodeID,
		CreatedBy: createdBy,
		Token:     token,
		ReadOnly:  readOnly,
	}
	if ttl != nil {
		exp := s.now().Add(*ttl).UTC()
		share.ExpiresAt = &exp
	}

	created, err := s.repomanager.Shares().Create(ctx, share)
	if err != nil {
		return nil, fmt.Errorf("error creating share: %w", err)
	}
	s.log.Info(ctx, "share created", "node_id", nodeID, "share_id", created.ID)
	return created, nil
}

// Resolve returns the share behind token while it is active. Unknown and
// expired tokens both fail with common.ErrorNotFound.
func (s *ShareService) Resolve(ctx context.Context, token string) (*models.Share, error) {
	share, err := s.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if !share.ActiveAt(s.now()) {
		return nil, common.ErrorNotFound
	}
	return share, nil
}

// Lookup returns the share behind token whether or not it has expired.
func (s *ShareService) Lookup(ctx context.Context, token string) (*models.Share, error) {
	if token == "" {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Shares().GetByToken(ctx, token)
}

// Revoke deletes the share behind token. Unknown tokens are not an error.
func (s *ShareService) Revoke(ctx context.Context, token string) error {
	if err := s.repomanager.Shares().DeleteByToken(ctx, token); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return nil
}

// Sweep deletes every share that has expired by now.
func (s *ShareService) Sweep(ctx context.Context, now time.Time) (int64, error) {
	return s.repomanager.Shares().DeleteExpired(ctx, now)
}
