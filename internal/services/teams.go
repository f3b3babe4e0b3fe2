package services

import (
	"context"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/models"
	"team-tasks/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

type TeamDraft struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, actor *models.User, draft TeamDraft) (*models.Team, error)
	GetTeam(ctx context.Context, actor *models.User, teamID uuid.UUID) (*models.Team, error)
	ListTeamsForActor(ctx context.Context, actor *models.User) ([]models.Team, error)
	GetTeamTasks(ctx context.Context, actor *models.User, teamID uuid.UUID) ([]models.Task, error)
	AddMember(ctx context.Context, actor *models.User, teamID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, actor *models.User, teamID, userID uuid.UUID) error
	DeleteTeam(ctx context.Context, actor *models.User, teamID uuid.UUID) error
	DeleteUser(ctx context.Context, actor *models.User, userID uuid.UUID) error
}

type TeamServiceImpl struct {
	store      repositories.Store
	membership MembershipService
	policy     *AccessPolicy
}

func NewTeamService(store repositories.Store, membership MembershipService, policy *AccessPolicy) *TeamServiceImpl {
	return &TeamServiceImpl{store: store, membership: membership, policy: policy}
}

func (s *TeamServiceImpl) CreateTeam(ctx context.Context, actor *models.User, draft TeamDraft) (*models.Team, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can create teams")
	}
	if draft.Name == "" {
		return nil, apperrors.BadRequest("team name is required")
	}

	team := &models.Team{
		ID:          uuid.Must(uuid.NewV4()),
		Name:        draft.Name,
		Description: draft.Description,
		OwnerID:     actor.ID,
	}
	if err := s.store.Teams().Create(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TeamServiceImpl) GetTeam(ctx context.Context, actor *models.User, teamID uuid.UUID) (*models.Team, error) {
	team, err := s.store.Teams().FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewTeam(ctx, actor, team) {
		return nil, apperrors.Forbidden("no access to this team")
	}
	members, err := s.store.Teams().ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	team.Members = members
	return team, nil
}

func (s *TeamServiceImpl) ListTeamsForActor(ctx context.Context, actor *models.User) ([]models.Team, error) {
	return s.membership.TeamsOwnedOrJoined(ctx, actor.ID)
}

func (s *TeamServiceImpl) GetTeamTasks(ctx context.Context, actor *models.User, teamID uuid.UUID) ([]models.Task, error) {
	team, err := s.store.Teams().FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewTeam(ctx, actor, team) {
		return nil, apperrors.Forbidden("no access to this team")
	}
	return s.store.Tasks().ListByTeam(ctx, teamID)
}

func (s *TeamServiceImpl) AddMember(ctx context.Context, actor *models.User, teamID, userID uuid.UUID) error {
	team, err := s.store.Teams().FindByID(ctx, teamID)
	if err != nil {
		return err
	}
	if !s.policy.CanManageTeam(actor, team) {
		return apperrors.Forbidden("only the team owner can manage members")
	}

	if _, err := s.store.Users().FindByID(ctx, userID); err != nil {
		return err
	}

	already, err := s.store.Teams().IsMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if already {
		return apperrors.Conflict("user is already a member of this team")
	}

	return s.store.Teams().AddMember(ctx, teamID, userID)
}

func (s *TeamServiceImpl) RemoveMember(ctx context.Context, actor *models.User, teamID, userID uuid.UUID) error {
	team, err := s.store.Teams().FindByID(ctx, teamID)
	if err != nil {
		return err
	}
	// Members may leave on their own; removing anyone else is the
	// owner's call.
	if actor == nil || (actor.ID != userID && !s.policy.CanManageTeam(actor, team)) {
		return apperrors.Forbidden("only the team owner can remove other members")
	}

	isMember, err := s.store.Teams().IsMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return apperrors.NotFound("team member not found")
	}

	return s.store.Teams().RemoveMember(ctx, teamID, userID)
}

func (s *TeamServiceImpl) DeleteTeam(ctx context.Context, actor *models.User, teamID uuid.UUID) error {
	team, err := s.store.Teams().FindByID(ctx, teamID)
	if err != nil {
		return err
	}
	if !s.policy.CanManageTeam(actor, team) {
		return apperrors.Forbidden("only the team owner can delete the team")
	}

	return s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		members, err := tx.Teams().ListMembers(ctx, teamID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if err := tx.Teams().RemoveMember(ctx, teamID, m.UserID); err != nil {
				return err
			}
		}
		return tx.Teams().Delete(ctx, teamID)
	})
}

// DeleteUser removes an account. Users are never implicitly deleted;
// all team associations must be gone first.
func (s *TeamServiceImpl) DeleteUser(ctx context.Context, actor *models.User, userID uuid.UUID) error {
	if actor == nil {
		return apperrors.Forbidden("not permitted")
	}
	if actor.ID != userID && !actor.IsAdmin() {
		return apperrors.Forbidden("only admins can delete other users")
	}

	if _, err := s.store.Users().FindByID(ctx, userID); err != nil {
		return err
	}

	associations, err := s.store.Teams().CountAssociations(ctx, userID)
	if err != nil {
		return err
	}
	if associations > 0 {
		return apperrors.Conflict("user must leave all teams before deletion")
	}

	return s.store.Users().Delete(ctx, userID)
}
