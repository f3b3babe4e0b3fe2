// Package invites holds the ephemeral invite-token store. Tokens are
// process-local and never persisted: losing them on restart is an
// accepted tradeoff, since a restart invalidates every outstanding
// invitation rather than leaking one.
package invites

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sort"
	"sync"
	"time"

	"team-tasks/backend/internal/apperrors"

	"github.com/gofrs/uuid"
)

const tokenBytes = 32

// OwnershipVerifier is the slice of the membership resolver the store
// needs. Ownership is re-verified against current state on both issue
// and consume; caller-supplied flags are never trusted.
type OwnershipVerifier interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	OwnsTeam(ctx context.Context, adminID, teamID uuid.UUID) (bool, error)
	// FirstOwnedTeam returns the lowest-id team owned by the admin.
	FirstOwnedTeam(ctx context.Context, adminID uuid.UUID) (uuid.UUID, bool, error)
	TeamExists(ctx context.Context, teamID uuid.UUID) (bool, error)
}

// Grant is what a redeemed token entitles: membership in TeamID,
// admitted by AdminID.
type Grant struct {
	AdminID   uuid.UUID
	TeamID    uuid.UUID
	Purpose   string
	ExpiresAt time.Time
}

// InviteInfo is the management view of an outstanding token.
type InviteInfo struct {
	Token     string    `json:"token"`
	TeamID    uuid.UUID `json:"team_id"`
	Purpose   string    `json:"purpose,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store maps tokens to grants with a fixed TTL. All access is
// serialized by one mutex; ValidateAndConsume holds it across the
// whole check-and-delete so two concurrent redemptions of the same
// token can never both succeed.
type Store struct {
	mu       sync.Mutex
	grants   map[string]Grant
	ttl      time.Duration
	verifier OwnershipVerifier
	now      func() time.Time

	stopSweep chan struct{}
	sweepOnce sync.Once
}

func NewStore(verifier OwnershipVerifier, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		grants:    make(map[string]Grant),
		ttl:       ttl,
		verifier:  verifier,
		now:       time.Now,
		stopSweep: make(chan struct{}),
	}
}

// StartSweeper launches the periodic expiry sweep. onSweep, if
// non-nil, receives the number of tokens removed on each pass. Call
// Stop on shutdown.
func (s *Store) StartSweeper(interval time.Duration, onSweep func(int)) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n := s.SweepExpired()
				if onSweep != nil {
					onSweep(n)
				}
			case <-s.stopSweep:
				return
			}
		}
	}()
}

func (s *Store) Stop() {
	s.sweepOnce.Do(func() { close(s.stopSweep) })
}

// Issue creates a single-use token admitting a new member to teamID.
// A nil teamID falls back to the admin's lowest-id owned team. The
// admin's role and ownership are checked against current membership
// state.
func (s *Store) Issue(ctx context.Context, adminID uuid.UUID, teamID *uuid.UUID, purpose string) (string, error) {
	isAdmin, err := s.verifier.IsAdmin(ctx, adminID)
	if err != nil {
		return "", err
	}
	if !isAdmin {
		return "", apperrors.Forbidden("only admins can issue invites")
	}

	var target uuid.UUID
	if teamID != nil {
		exists, err := s.verifier.TeamExists(ctx, *teamID)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", apperrors.NotFound("team not found")
		}
		owns, err := s.verifier.OwnsTeam(ctx, adminID, *teamID)
		if err != nil {
			return "", err
		}
		if !owns {
			return "", apperrors.Forbidden("admin does not own this team")
		}
		target = *teamID
	} else {
		first, ok, err := s.verifier.FirstOwnedTeam(ctx, adminID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", apperrors.Forbidden("admin owns no team to invite into")
		}
		target = first
	}

	token, err := generateToken()
	if err != nil {
		return "", apperrors.Infrastructure(err)
	}

	grant := Grant{
		AdminID:   adminID,
		TeamID:    target,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.grants[token] = grant
	s.mu.Unlock()

	return token, nil
}

// ValidateAndConsume redeems a token exactly once. Existence, expiry,
// the issuer's continued admin status, and the team's continued
// existence are all checked under the store lock; success removes the
// token, so a concurrent second call observes InvalidToken.
func (s *Store) ValidateAndConsume(ctx context.Context, token string) (Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[token]
	if !ok {
		return Grant{}, apperrors.InvalidToken("invalid or expired invite")
	}

	if s.now().After(grant.ExpiresAt) {
		delete(s.grants, token)
		return Grant{}, apperrors.InvalidToken("invalid or expired invite")
	}

	stillAdmin, err := s.verifier.IsAdmin(ctx, grant.AdminID)
	if err != nil {
		return Grant{}, err
	}
	teamExists, err := s.verifier.TeamExists(ctx, grant.TeamID)
	if err != nil {
		return Grant{}, err
	}
	if !stillAdmin || !teamExists {
		delete(s.grants, token)
		return Grant{}, apperrors.InvalidToken("invalid or expired invite")
	}

	delete(s.grants, token)
	return grant, nil
}

// Restore re-registers a grant under its original token. Used to hand
// a consumed token back when the surrounding registration rolls back
// for reasons unrelated to the token itself.
func (s *Store) Restore(token string, grant Grant) {
	if s.now().After(grant.ExpiresAt) {
		return
	}
	s.mu.Lock()
	s.grants[token] = grant
	s.mu.Unlock()
}

// Revoke removes a token only if adminID issued it. The return value
// never reveals whether the token exists for a different admin.
func (s *Store) Revoke(token string, adminID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[token]
	if !ok || grant.AdminID != adminID {
		return false
	}
	delete(s.grants, token)
	return true
}

// SweepExpired removes every token past expiry and returns the count.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, grant := range s.grants {
		if now.After(grant.ExpiresAt) {
			delete(s.grants, token)
			removed++
		}
	}
	return removed
}

// ListForAdmin returns the admin's outstanding tokens without
// consuming them, soonest expiry first.
func (s *Store) ListForAdmin(adminID uuid.UUID) []InviteInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var out []InviteInfo
	for token, grant := range s.grants {
		if grant.AdminID != adminID || now.After(grant.ExpiresAt) {
			continue
		}
		out = append(out, InviteInfo{
			Token:     token,
			TeamID:    grant.TeamID,
			Purpose:   grant.Purpose,
			ExpiresAt: grant.ExpiresAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
