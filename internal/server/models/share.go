package models

import "time"

// Share grants anonymous content retrieval of one node through Token.
// A nil ExpiresAt never expires.
type Share struct {
	ID        string
	NodeID    string
	CreatedBy string
	Token     string
	ReadOnly  bool
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// ActiveAt reports whether the share still grants access at now.
func (s *Share) ActiveAt(now time.Time) bool {
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}
