package services

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/models"
	"team-tasks/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

// MembershipService derives, for an actor, the effective set of teams
// and the users reachable through them. Results are computed against
// current membership state on every call; membership changes must be
// visible to the next authorization decision, so nothing is cached.
type MembershipService interface {
	TeamsOwnedOrJoined(ctx context.Context, userID uuid.UUID) ([]models.Team, error)
	UsersReachableBy(ctx context.Context, actor *models.User) ([]uuid.UUID, error)
	SharedTeams(ctx context.Context, userA, userB uuid.UUID) ([]models.Team, error)

	// Verifier surface consumed by the invite token store.
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	OwnsTeam(ctx context.Context, adminID, teamID uuid.UUID) (bool, error)
	FirstOwnedTeam(ctx context.Context, adminID uuid.UUID) (uuid.UUID, bool, error)
	TeamExists(ctx context.Context, teamID uuid.UUID) (bool, error)
	IsMemberOf(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
}

type MembershipServiceImpl struct {
	store repositories.Store
}

func NewMembershipService(store repositories.Store) *MembershipServiceImpl {
	return &MembershipServiceImpl{store: store}
}

// TeamsOwnedOrJoined returns the union of teams the user owns and
// teams the user joined, deduplicated and sorted ascending by id.
func (s *MembershipServiceImpl) TeamsOwnedOrJoined(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	owned, err := s.store.Teams().ListOwnedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	joined, err := s.store.Teams().ListMemberOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(owned)+len(joined))
	teams := make([]models.Team, 0, len(owned)+len(joined))
	for _, t := range append(owned, joined...) {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		teams = append(teams, t)
	}
	sortTeamsByID(teams)
	return teams, nil
}

// UsersReachableBy returns all users visible to the actor. Admins see
// every member (and owner) across their owned-or-joined teams, plus
// themselves; plain members see only themselves.
func (s *MembershipServiceImpl) UsersReachableBy(ctx context.Context, actor *models.User) ([]uuid.UUID, error) {
	if actor == nil {
		return nil, apperrors.BadRequest("actor is required")
	}
	if !actor.IsAdmin() {
		return []uuid.UUID{actor.ID}, nil
	}

	teams, err := s.TeamsOwnedOrJoined(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]bool{actor.ID: true}
	users := []uuid.UUID{actor.ID}
	for _, team := range teams {
		if !seen[team.OwnerID] {
			seen[team.OwnerID] = true
			users = append(users, team.OwnerID)
		}
		members, err := s.store.Teams().ListMembers(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if !seen[m.UserID] {
				seen[m.UserID] = true
				users = append(users, m.UserID)
			}
		}
	}
	return users, nil
}

// SharedTeams returns teams where both users are present, as member or
// owner, sorted ascending by team id. The first entry is the
// deterministic pick when a team must be chosen on the caller's
// behalf.
func (s *MembershipServiceImpl) SharedTeams(ctx context.Context, userA, userB uuid.UUID) ([]models.Team, error) {
	teamsA, err := s.TeamsOwnedOrJoined(ctx, userA)
	if err != nil {
		return nil, err
	}
	teamsB, err := s.TeamsOwnedOrJoined(ctx, userB)
	if err != nil {
		return nil, err
	}

	inB := make(map[uuid.UUID]bool, len(teamsB))
	for _, t := range teamsB {
		inB[t.ID] = true
	}

	var shared []models.Team
	for _, t := range teamsA {
		if inB[t.ID] {
			shared = append(shared, t)
		}
	}
	sortTeamsByID(shared)
	return shared, nil
}

func (s *MembershipServiceImpl) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin(), nil
}

func (s *MembershipServiceImpl) OwnsTeam(ctx context.Context, adminID, teamID uuid.UUID) (bool, error) {
	team, err := s.store.Teams().FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return team.OwnerID == adminID, nil
}

func (s *MembershipServiceImpl) FirstOwnedTeam(ctx context.Context, adminID uuid.UUID) (uuid.UUID, bool, error) {
	owned, err := s.store.Teams().ListOwnedBy(ctx, adminID)
	if err != nil {
		return uuid.Nil, false, err
	}
	if len(owned) == 0 {
		return uuid.Nil, false, nil
	}
	sortTeamsByID(owned)
	return owned[0].ID, true, nil
}

func (s *MembershipServiceImpl) TeamExists(ctx context.Context, teamID uuid.UUID) (bool, error) {
	_, err := s.store.Teams().FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *MembershipServiceImpl) IsMemberOf(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	return s.store.Teams().IsMember(ctx, teamID, userID)
}

func sortTeamsByID(teams []models.Team) {
	sort.Slice(teams, func(i, j int) bool {
		return lessUUID(teams[i].ID, teams[j].ID)
	})
}

func lessUUID(a, b uuid.UUID) bool {
	return bytes.Compare(a.Bytes(), b.Bytes()) < 0
}
