package services

import (
	"context"
	"errors"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/invites"

	"github.com/gofrs/uuid"
)

// InviteService composes the ephemeral token store with registration:
// an admin issues a token, a new user redeems it and lands in the
// granted team.
type InviteService interface {
	IssueInvite(ctx context.Context, adminID uuid.UUID, teamID *uuid.UUID, purpose string) (string, error)
	RedeemInvite(ctx context.Context, token string, req RegistrationRequest) (*RegistrationResult, error)
	RevokeInvite(token string, adminID uuid.UUID) bool
	ListInvites(adminID uuid.UUID) []invites.InviteInfo
}

type InviteServiceImpl struct {
	tokens   *invites.Store
	register RegisterService
}

func NewInviteService(tokens *invites.Store, register RegisterService) *InviteServiceImpl {
	return &InviteServiceImpl{tokens: tokens, register: register}
}

func (s *InviteServiceImpl) IssueInvite(ctx context.Context, adminID uuid.UUID, teamID *uuid.UUID, purpose string) (string, error) {
	return s.tokens.Issue(ctx, adminID, teamID, purpose)
}

// RedeemInvite consumes the token, then runs registration inside one
// transactional boundary. If registration rolls back for a reason
// unrelated to the token (duplicate email, storage failure), the
// grant is handed back so the invitee can retry; a redeemed account
// with a still-live token, or a dead token with no account, is never
// left behind.
func (s *InviteServiceImpl) RedeemInvite(ctx context.Context, token string, req RegistrationRequest) (*RegistrationResult, error) {
	grant, err := s.tokens.ValidateAndConsume(ctx, token)
	if err != nil {
		return nil, err
	}

	result, err := s.register.RegisterWithGrant(ctx, req, grant.TeamID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidToken) {
			s.tokens.Restore(token, grant)
		}
		return nil, err
	}
	return result, nil
}

func (s *InviteServiceImpl) RevokeInvite(token string, adminID uuid.UUID) bool {
	return s.tokens.Revoke(token, adminID)
}

func (s *InviteServiceImpl) ListInvites(adminID uuid.UUID) []invites.InviteInfo {
	return s.tokens.ListForAdmin(adminID)
}
