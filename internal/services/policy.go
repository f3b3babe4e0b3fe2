package services

import (
	"context"

	"team-tasks/backend/internal/models"

	"github.com/gofrs/uuid"
)

// AccessPolicy is the set of authorization predicates gating every
// mutation path. Each predicate fails closed: a nil actor, a missing
// relation, or a resolver error all yield false.
type AccessPolicy struct {
	membership MembershipService
}

func NewAccessPolicy(membership MembershipService) *AccessPolicy {
	return &AccessPolicy{membership: membership}
}

// CanViewTask: personal tasks are visible to their assignee and
// creator only; team tasks to the assignee, the creator, and the
// team's owner.
func (p *AccessPolicy) CanViewTask(ctx context.Context, actor *models.User, task *models.Task) bool {
	if actor == nil || task == nil {
		return false
	}
	if task.AssigneeID == actor.ID || task.CreatorID == actor.ID {
		return true
	}
	if task.IsPersonal() {
		return false
	}
	if !actor.IsAdmin() {
		return false
	}
	owns, err := p.membership.OwnsTeam(ctx, actor.ID, *task.TeamID)
	if err != nil {
		return false
	}
	return owns
}

// CanAssign: anyone may self-assign; assigning to someone else
// requires an admin actor with access to the team and the target being
// a member of it.
func (p *AccessPolicy) CanAssign(ctx context.Context, actor, target *models.User, teamID *uuid.UUID) bool {
	if actor == nil || target == nil {
		return false
	}
	if actor.ID == target.ID {
		return true
	}
	if !actor.IsAdmin() || teamID == nil {
		return false
	}
	if !p.hasTeamAccess(ctx, actor.ID, *teamID) {
		return false
	}
	isMember, err := p.membership.IsMemberOf(ctx, *teamID, target.ID)
	if err != nil {
		return false
	}
	return isMember
}

// CanModifyTask mirrors visibility: whoever can see a task may update
// its fields; assignment changes go through CanAssign separately.
func (p *AccessPolicy) CanModifyTask(ctx context.Context, actor *models.User, task *models.Task) bool {
	return p.CanViewTask(ctx, actor, task)
}

// CanDeleteTask: the creator always may; an admin may for team tasks
// in teams they have access to. Personal tasks belonging to someone
// else stay out of reach even for admins.
func (p *AccessPolicy) CanDeleteTask(ctx context.Context, actor *models.User, task *models.Task) bool {
	if actor == nil || task == nil {
		return false
	}
	if task.CreatorID == actor.ID {
		return true
	}
	if task.IsPersonal() || !actor.IsAdmin() {
		return false
	}
	return p.hasTeamAccess(ctx, actor.ID, *task.TeamID)
}

// CanViewTeam: owner or member.
func (p *AccessPolicy) CanViewTeam(ctx context.Context, actor *models.User, team *models.Team) bool {
	if actor == nil || team == nil {
		return false
	}
	if team.OwnerID == actor.ID {
		return true
	}
	isMember, err := p.membership.IsMemberOf(ctx, team.ID, actor.ID)
	if err != nil {
		return false
	}
	return isMember
}

// CanManageTeam: the owner only. Members get read access to team task
// lists but no management rights.
func (p *AccessPolicy) CanManageTeam(actor *models.User, team *models.Team) bool {
	if actor == nil || team == nil {
		return false
	}
	return team.OwnerID == actor.ID
}

// hasTeamAccess reports whether the user owns or joined the team.
func (p *AccessPolicy) hasTeamAccess(ctx context.Context, userID, teamID uuid.UUID) bool {
	owns, err := p.membership.OwnsTeam(ctx, userID, teamID)
	if err != nil {
		return false
	}
	if owns {
		return true
	}
	isMember, err := p.membership.IsMemberOf(ctx, teamID, userID)
	if err != nil {
		return false
	}
	return isMember
}
