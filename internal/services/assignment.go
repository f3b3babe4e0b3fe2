package services

import (
	"context"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/models"
	"team-tasks/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

// Resolution is the outcome of assignment resolution: who the task
// goes to and which team (if any) it belongs to. TeamID carries the
// deterministic shared-team pick back to the caller when none was
// specified.
type Resolution struct {
	Assignee *models.User
	TeamID   *uuid.UUID
}

// AssignmentEngine resolves the (assignee, team) pair for task
// creation and reassignment. Every failing branch names the
// precondition that failed so callers can render a precise error.
type AssignmentEngine struct {
	store      repositories.Store
	membership MembershipService
	policy     *AccessPolicy
}

func NewAssignmentEngine(store repositories.Store, membership MembershipService, policy *AccessPolicy) *AssignmentEngine {
	return &AssignmentEngine{store: store, membership: membership, policy: policy}
}

// ResolveCreate applies the creation rules: no assignee defaults to
// the actor; self-assignment carries the explicit team or stays
// personal; assigning to someone else requires an admin with access
// to an explicit or shared team.
func (e *AssignmentEngine) ResolveCreate(ctx context.Context, actor *models.User, assigneeID, teamID *uuid.UUID) (*Resolution, error) {
	if actor == nil {
		return nil, apperrors.BadRequest("actor is required")
	}

	if assigneeID == nil || *assigneeID == actor.ID {
		return e.resolveSelf(ctx, actor, teamID)
	}

	assignee, err := e.store.Users().FindByID(ctx, *assigneeID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can assign tasks to other users")
	}

	if teamID != nil {
		return e.resolveExplicitTeam(ctx, actor, assignee, *teamID)
	}
	return e.resolveSharedTeam(ctx, actor, assignee)
}

// ResolveReassign re-validates membership against the task's current
// team. Personal tasks permit only self-reassignment (back to the
// creator).
func (e *AssignmentEngine) ResolveReassign(ctx context.Context, actor *models.User, task *models.Task, newAssigneeID uuid.UUID) (*Resolution, error) {
	if actor == nil || task == nil {
		return nil, apperrors.BadRequest("actor and task are required")
	}

	assignee, err := e.store.Users().FindByID(ctx, newAssigneeID)
	if err != nil {
		return nil, err
	}

	if task.IsPersonal() {
		if newAssigneeID != task.CreatorID {
			return nil, apperrors.Forbidden("personal tasks can only be assigned to their creator")
		}
		return &Resolution{Assignee: assignee, TeamID: nil}, nil
	}

	if newAssigneeID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can reassign tasks to other users")
	}

	isMember, err := e.membership.IsMemberOf(ctx, *task.TeamID, newAssigneeID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperrors.Forbidden("assignee is not a member of the task's team")
	}

	return &Resolution{Assignee: assignee, TeamID: task.TeamID}, nil
}

func (e *AssignmentEngine) resolveSelf(ctx context.Context, actor *models.User, teamID *uuid.UUID) (*Resolution, error) {
	if teamID == nil {
		// Personal task: assignee == creator, no team.
		return &Resolution{Assignee: actor, TeamID: nil}, nil
	}

	team, err := e.store.Teams().FindByID(ctx, *teamID)
	if err != nil {
		return nil, err
	}

	hasAccess := e.policy.CanManageTeam(actor, team)
	if !hasAccess {
		isMember, err := e.membership.IsMemberOf(ctx, team.ID, actor.ID)
		if err != nil {
			return nil, err
		}
		hasAccess = isMember
	}
	if !hasAccess {
		return nil, apperrors.Forbidden("actor has no access to the specified team")
	}

	id := team.ID
	return &Resolution{Assignee: actor, TeamID: &id}, nil
}

func (e *AssignmentEngine) resolveExplicitTeam(ctx context.Context, actor, assignee *models.User, teamID uuid.UUID) (*Resolution, error) {
	team, err := e.store.Teams().FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if !e.policy.CanAssign(ctx, actor, assignee, &team.ID) {
		isMember, memberErr := e.membership.IsMemberOf(ctx, team.ID, assignee.ID)
		if memberErr == nil && !isMember {
			return nil, apperrors.Forbidden("assignee is not a member of the specified team")
		}
		return nil, apperrors.Forbidden("actor has no access to the specified team")
	}

	id := team.ID
	return &Resolution{Assignee: assignee, TeamID: &id}, nil
}

func (e *AssignmentEngine) resolveSharedTeam(ctx context.Context, actor, assignee *models.User) (*Resolution, error) {
	shared, err := e.membership.SharedTeams(ctx, actor.ID, assignee.ID)
	if err != nil {
		return nil, err
	}
	// Lowest team id wins; the chosen team is surfaced in the
	// resolution rather than guessed silently. Teams where the
	// assignee is only the owner are skipped, since a team task's
	// assignee must be an actual member.
	for _, team := range shared {
		isMember, err := e.membership.IsMemberOf(ctx, team.ID, assignee.ID)
		if err != nil {
			return nil, err
		}
		if isMember {
			id := team.ID
			return &Resolution{Assignee: assignee, TeamID: &id}, nil
		}
	}
	return nil, apperrors.BadRequest("no shared team; specify team_id")
}
