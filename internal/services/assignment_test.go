package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/models"
)

type engineFixture struct {
	*policyFixture
	engine *AssignmentEngine
}

func newEngineFixture() *engineFixture {
	f := newPolicyFixture()
	membership := NewMembershipService(f.store)
	return &engineFixture{
		policyFixture: f,
		engine:        NewAssignmentEngine(f.store, membership, f.policy),
	}
}

func TestResolveCreatePersonal(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	res, err := f.engine.ResolveCreate(ctx, f.member, nil, nil)
	if err != nil {
		t.Fatalf("ResolveCreate() error = %v", err)
	}
	if res.Assignee.ID != f.member.ID {
		t.Errorf("Assignee = %v, want actor %v", res.Assignee.ID, f.member.ID)
	}
	if res.TeamID != nil {
		t.Errorf("TeamID = %v, want nil for personal task", res.TeamID)
	}
}

func TestResolveCreateSelfWithTeam(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	res, err := f.engine.ResolveCreate(ctx, f.member, &f.member.ID, &f.team.ID)
	if err != nil {
		t.Fatalf("ResolveCreate() error = %v", err)
	}
	if res.TeamID == nil || *res.TeamID != f.team.ID {
		t.Errorf("TeamID = %v, want %v", res.TeamID, f.team.ID)
	}

	// An outsider has no access to the team, even for self-assignment.
	if _, err := f.engine.ResolveCreate(ctx, f.outsider, nil, &f.team.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("ResolveCreate() outsider error = %v, want forbidden", err)
	}
}

func TestResolveCreateOtherRequiresAdmin(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	if _, err := f.engine.ResolveCreate(ctx, f.member, &f.outsider.ID, &f.team.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("ResolveCreate() by member for other error = %v, want forbidden", err)
	}

	res, err := f.engine.ResolveCreate(ctx, f.admin, &f.member.ID, &f.team.ID)
	if err != nil {
		t.Fatalf("ResolveCreate() by admin error = %v", err)
	}
	if res.Assignee.ID != f.member.ID {
		t.Errorf("Assignee = %v, want %v", res.Assignee.ID, f.member.ID)
	}
	if res.TeamID == nil || *res.TeamID != f.team.ID {
		t.Errorf("TeamID = %v, want %v", res.TeamID, f.team.ID)
	}
}

func TestResolveCreateAssigneeNotMember(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	if _, err := f.engine.ResolveCreate(ctx, f.admin, &f.outsider.ID, &f.team.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("ResolveCreate() for non-member error = %v, want forbidden", err)
	}
}

func TestResolveCreateUnknownAssignee(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	ghost := f.store.addUser(models.RoleMember)
	delete(f.store.users, ghost.ID)

	if _, err := f.engine.ResolveCreate(ctx, f.admin, &ghost.ID, &f.team.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("ResolveCreate() for unknown assignee error = %v, want not found", err)
	}
}

func TestResolveCreateSharedTeamPick(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	// Second shared team: both picks are legal, so the lowest team id
	// must win deterministically.
	teamB := f.store.addTeam(f.admin)
	f.store.join(teamB, f.member)

	expected := f.team.ID
	if bytes.Compare(teamB.ID.Bytes(), f.team.ID.Bytes()) < 0 {
		expected = teamB.ID
	}

	res, err := f.engine.ResolveCreate(ctx, f.admin, &f.member.ID, nil)
	if err != nil {
		t.Fatalf("ResolveCreate() error = %v", err)
	}
	if res.TeamID == nil || *res.TeamID != expected {
		t.Errorf("TeamID = %v, want lowest shared team %v", res.TeamID, expected)
	}
}

func TestResolveCreateSharedTeamSkipsOwnerOnlyTeams(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	// The assignee owns a team but is not a member of it; a shared-team
	// pick must skip it since a team task's assignee must be a member.
	memberAdmin := f.store.addUser(models.RoleAdmin)
	ownedOnly := f.store.addTeam(memberAdmin)
	f.store.join(ownedOnly, f.admin)

	res, err := f.engine.ResolveCreate(ctx, f.admin, &memberAdmin.ID, nil)
	if !errors.Is(err, apperrors.ErrBadRequest) {
		if err == nil && res != nil && res.TeamID != nil && *res.TeamID == ownedOnly.ID {
			t.Fatalf("ResolveCreate() picked owner-only team %v", ownedOnly.ID)
		}
		t.Errorf("ResolveCreate() error = %v, want bad request (no eligible shared team)", err)
	}
}

func TestResolveCreateNoSharedTeam(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	loner := f.store.addUser(models.RoleMember)
	if _, err := f.engine.ResolveCreate(ctx, f.admin, &loner.ID, nil); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("ResolveCreate() without shared team error = %v, want bad request", err)
	}
}

func TestResolveReassignPersonal(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	task := f.store.addTask(f.member, f.member, nil)

	// Back to the creator is the only legal personal reassignment.
	res, err := f.engine.ResolveReassign(ctx, f.member, task, f.member.ID)
	if err != nil {
		t.Fatalf("ResolveReassign() error = %v", err)
	}
	if res.TeamID != nil {
		t.Errorf("TeamID = %v, want nil", res.TeamID)
	}

	if _, err := f.engine.ResolveReassign(ctx, f.admin, task, f.admin.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("ResolveReassign() personal to other error = %v, want forbidden", err)
	}
}

func TestResolveReassignTeamTask(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	second := f.store.addUser(models.RoleMember)
	f.store.join(f.team, second)
	task := f.store.addTask(f.admin, f.member, &f.team.ID)

	res, err := f.engine.ResolveReassign(ctx, f.admin, task, second.ID)
	if err != nil {
		t.Fatalf("ResolveReassign() error = %v", err)
	}
	if res.Assignee.ID != second.ID {
		t.Errorf("Assignee = %v, want %v", res.Assignee.ID, second.ID)
	}
	if res.TeamID == nil || *res.TeamID != f.team.ID {
		t.Errorf("TeamID = %v, want task's team %v", res.TeamID, f.team.ID)
	}
}

func TestResolveReassignRevalidatesMembership(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	task := f.store.addTask(f.admin, f.member, &f.team.ID)

	if _, err := f.engine.ResolveReassign(ctx, f.admin, task, f.outsider.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("ResolveReassign() to non-member error = %v, want forbidden", err)
	}
}

func TestResolveReassignMemberCannotHandOff(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	second := f.store.addUser(models.RoleMember)
	f.store.join(f.team, second)
	task := f.store.addTask(f.admin, f.member, &f.team.ID)

	if _, err := f.engine.ResolveReassign(ctx, f.member, task, second.ID); !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("ResolveReassign() by member to other error = %v, want forbidden", err)
	}

	// Taking the task yourself stays open to members.
	if _, err := f.engine.ResolveReassign(ctx, second, task, second.ID); err != nil {
		t.Errorf("ResolveReassign() self-take error = %v", err)
	}
}
