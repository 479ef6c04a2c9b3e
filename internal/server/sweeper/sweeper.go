// Package sweeper runs periodic cleanup: expired shares, idle sessions and
// content objects that no node references.
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/logging"
	"github.com/dmitrijs2005/cloudrive/internal/server/content"
	"github.com/dmitrijs2005/cloudrive/internal/server/metrics"
	"github.com/dmitrijs2005/cloudrive/internal/server/repositories/nodes"
	"github.com/dmitrijs2005/cloudrive/internal/server/services"
	"github.com/dmitrijs2005/cloudrive/internal/server/sessions"
)

type Sweeper struct {
	shares   *services.ShareService
	sessions *sessions.Registry
	nodes    nodes.Repository
	store    content.Store
	interval time.Duration
	grace    time.Duration
	uploads  *content.InFlight
	now      func() time.Time
	log      logging.Logger
}

type Option func(*Sweeper)

// WithUploads makes the sweeper skip objects of owners with an upload in
// progress. Pass the same set the gateway uses.
func WithUploads(u *content.InFlight) Option {
	return func(s *Sweeper) {
		s.uploads = u
	}
}

// New creates a sweeper. interval 0 disables it. Objects younger than grace
// are never treated as orphans, since an upload writes its object before
// the node that references it.
func New(shares *services.ShareService, reg *sessions.Registry, nodes nodes.Repository, store content.Store,
	interval, grace time.Duration, log logging.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		shares:   shares,
		sessions: reg,
		nodes:    nodes,
		store:    store,
		interval: interval,
		grace:    grace,
		uploads:  content.NewInFlight(),
		now:      time.Now,
		log:      log.With("module", "sweeper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info(ctx, "sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info(ctx, "starting sweeper", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "stopping sweeper")
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Error(ctx, "sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce runs every cleanup step once. A failing step does not stop the
// others.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	now := s.now()
	var errs []error

	n, err := s.shares.Sweep(ctx, now)
	if err != nil {
		errs = append(errs, err)
	}
	metrics.RecordSwept("shares", int(n))

	idle := s.sessions.Sweep(now)
	metrics.RecordSwept("sessions", idle)
	metrics.SetActiveSessions(s.sessions.Len())

	orphans, err := s.sweepContent(ctx, now)
	if err != nil {
		errs = append(errs, err)
	}
	metrics.RecordSwept("content", orphans)

	if n > 0 || idle > 0 || orphans > 0 {
		s.log.Info(ctx, "sweep finished", "shares", n, "sessions", idle, "content", orphans)
	}
	return errors.Join(errs...)
}

func (s *Sweeper) sweepContent(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.grace)

	var candidates []string
	err := s.store.Walk(ctx, func(info content.ObjectInfo) error {
		if info.ModTime.After(cutoff) {
			return nil
		}
		// checked before the node lookup: an upload that ends after this
		// point has already committed its node or removed its object
		if owner, _, err := content.ParseRef(info.Ref); err == nil && s.uploads.Busy(owner) {
			return nil
		}
		used, err := s.nodes.ContentRefExists(ctx, info.Ref)
		if err != nil {
			return err
		}
		if !used {
			candidates = append(candidates, info.Ref)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, ref := range candidates {
		if err := s.store.Remove(ctx, ref); err != nil {
			s.log.Warn(ctx, "orphan removal failed", "content_ref", ref, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
