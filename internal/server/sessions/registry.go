// Package sessions is the process-wide registry of live bearer sessions.
//
// A bearer token is an HS256 envelope around a random 128-bit session id.
// The registry is volatile: a restart forgets every session, so every
// previously issued token stops resolving.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/logging"
	"github.com/dmitrijs2005/cloudrive/internal/server/auth"
)

const sessionIDBytes = 16

type session struct {
	userID   string
	lastSeen time.Time
}

// Registry maps session ids to users. It is safe for concurrent use.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*session
	secret      []byte
	idleTimeout time.Duration
	now         func() time.Time
	log         logging.Logger
}

// NewRegistry creates an empty registry. idleTimeout 0 disables idle expiry.
func NewRegistry(secret []byte, idleTimeout time.Duration, log logging.Logger) *Registry {
	return &Registry{
		sessions:    make(map[string]*session),
		secret:      secret,
		idleTimeout: idleTimeout,
		now:         time.Now,
		log:         log.With("module", "sessions"),
	}
}

// Issue starts a new session for userID. A user may hold any number of
// sessions at once.
func (r *Registry) Issue(ctx context.Context, userID string) (string, error) {
	id, err := common.MakeRandHexString(sessionIDBytes)
	if err != nil {
		return "", err
	}
	token, err := auth.GenerateToken(userID, id, r.secret)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.sessions[id] = &session{userID: userID, lastSeen: r.now()}
	r.mu.Unlock()

	r.log.Debug(ctx, "session issued", "user_id", userID)
	return token, nil
}

// Resolve returns the user behind token. ok is false for forged, revoked,
// idle-expired and unknown tokens alike.
func (r *Registry) Resolve(ctx context.Context, token string) (userID string, ok bool) {
	claims, err := auth.ParseToken(token, r.secret)
	if err != nil {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.sessions[claims.SessionID()]
	if !found || s.userID != claims.UserID() {
		return "", false
	}
	now := r.now()
	if r.expired(s, now) {
		delete(r.sessions, claims.SessionID())
		r.log.Debug(ctx, "session idle-expired", "user_id", s.userID)
		return "", false
	}
	s.lastSeen = now
	return s.userID, true
}

// Revoke ends the session behind token. Unknown or malformed tokens are
// ignored.
func (r *Registry) Revoke(ctx context.Context, token string) {
	claims, err := auth.ParseToken(token, r.secret)
	if err != nil {
		return
	}
	r.mu.Lock()
	delete(r.sessions, claims.SessionID())
	r.mu.Unlock()
}

// Sweep drops every idle-expired session and returns how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.sessions {
		if r.expired(s, now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) expired(s *session, now time.Time) bool {
	return r.idleTimeout > 0 && now.Sub(s.lastSeen) > r.idleTimeout
}
