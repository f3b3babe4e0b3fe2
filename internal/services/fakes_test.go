package services

import (
	"context"
	"errors"
	"strings"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/models"
	"team-tasks/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

var errForcedWrite = errors.New("forced write failure")

// fakeStore is an in-memory repositories.Store. Transactions are a
// no-op pass-through; rollback behavior is exercised separately via
// forced write failures.
type fakeStore struct {
	users   map[uuid.UUID]*models.User
	teams   map[uuid.UUID]*models.Team
	tasks   map[uuid.UUID]*models.Task
	todos   map[uuid.UUID][]models.Todo // taskID -> checklist
	tokens  map[uuid.UUID]*models.Token // jti -> token
	members map[uuid.UUID][]uuid.UUID   // teamID -> member user ids

	failCreateUser bool
	failAddMember  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[uuid.UUID]*models.User),
		teams:   make(map[uuid.UUID]*models.Team),
		tasks:   make(map[uuid.UUID]*models.Task),
		todos:   make(map[uuid.UUID][]models.Todo),
		tokens:  make(map[uuid.UUID]*models.Token),
		members: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeStore) Users() repositories.UserRepository   { return &fakeUserRepo{f} }
func (f *fakeStore) Teams() repositories.TeamRepository   { return &fakeTeamRepo{f} }
func (f *fakeStore) Tasks() repositories.TaskRepository   { return &fakeTaskRepo{f} }
func (f *fakeStore) Todos() repositories.TodoRepository   { return &fakeTodoRepo{f} }
func (f *fakeStore) Tokens() repositories.TokenRepository { return &fakeTokenRepo{f} }

func (f *fakeStore) WithTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	return fn(f)
}

// Seeding helpers.

func (f *fakeStore) addUser(role string) *models.User {
	u := &models.User{
		ID:    uuid.Must(uuid.NewV4()),
		Name:  "user-" + uuid.Must(uuid.NewV4()).String()[:8],
		Role:  role,
		Email: uuid.Must(uuid.NewV4()).String() + "@example.com",
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) addTeam(owner *models.User) *models.Team {
	t := &models.Team{
		ID:      uuid.Must(uuid.NewV4()),
		Name:    "team-" + uuid.Must(uuid.NewV4()).String()[:8],
		OwnerID: owner.ID,
	}
	f.teams[t.ID] = t
	return t
}

func (f *fakeStore) join(team *models.Team, user *models.User) {
	f.members[team.ID] = append(f.members[team.ID], user.ID)
}

func (f *fakeStore) addTask(creator, assignee *models.User, teamID *uuid.UUID) *models.Task {
	task := &models.Task{
		ID:         uuid.Must(uuid.NewV4()),
		Title:      "task",
		Status:     models.StatusPending,
		Priority:   models.PriorityLow,
		CreatorID:  creator.ID,
		AssigneeID: assignee.ID,
		TeamID:     teamID,
	}
	f.tasks[task.ID] = task
	return task
}

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if r.s.failCreateUser {
		return apperrors.Infrastructure(errForcedWrite)
	}
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.s.users[user.ID]; !ok {
		return apperrors.NotFound("user not found")
	}
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.s.users[id]; !ok {
		return apperrors.NotFound("user not found")
	}
	delete(r.s.users, id)
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.s.users)), nil
}

type fakeTeamRepo struct{ s *fakeStore }

func (r *fakeTeamRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	t, ok := r.s.teams[id]
	if !ok {
		return nil, apperrors.NotFound("team not found")
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	copied := *team
	r.s.teams[team.ID] = &copied
	return nil
}

func (r *fakeTeamRepo) Update(ctx context.Context, team *models.Team) error {
	if _, ok := r.s.teams[team.ID]; !ok {
		return apperrors.NotFound("team not found")
	}
	copied := *team
	r.s.teams[team.ID] = &copied
	return nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.s.teams[id]; !ok {
		return apperrors.NotFound("team not found")
	}
	delete(r.s.teams, id)
	return nil
}

func (r *fakeTeamRepo) ListOwnedBy(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	var out []models.Team
	for _, t := range r.s.teams {
		if t.OwnerID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTeamRepo) ListMemberOf(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	var out []models.Team
	for teamID, userIDs := range r.s.members {
		for _, id := range userIDs {
			if id == userID {
				if t, ok := r.s.teams[teamID]; ok {
					out = append(out, *t)
				}
				break
			}
		}
	}
	return out, nil
}

func (r *fakeTeamRepo) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	if r.s.failAddMember {
		return apperrors.Infrastructure(errForcedWrite)
	}
	r.s.members[teamID] = append(r.s.members[teamID], userID)
	return nil
}

func (r *fakeTeamRepo) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	ids := r.s.members[teamID]
	for i, id := range ids {
		if id == userID {
			r.s.members[teamID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("team member not found")
}

func (r *fakeTeamRepo) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	for _, id := range r.s.members[teamID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTeamRepo) ListMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	var out []models.TeamMember
	for _, id := range r.s.members[teamID] {
		out = append(out, models.TeamMember{TeamID: teamID, UserID: id})
	}
	return out, nil
}

func (r *fakeTeamRepo) CountAssociations(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, t := range r.s.teams {
		if t.OwnerID == userID {
			n++
		}
	}
	for _, ids := range r.s.members {
		for _, id := range ids {
			if id == userID {
				n++
			}
		}
	}
	return n, nil
}

type fakeTaskRepo struct{ s *fakeStore }

func (r *fakeTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, apperrors.NotFound("task not found")
	}
	copied := *t
	copied.Todos = append([]models.Todo(nil), r.s.todos[id]...)
	return &copied, nil
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *models.Task) error {
	copied := *task
	copied.Todos = nil
	r.s.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *models.Task) error {
	if _, ok := r.s.tasks[task.ID]; !ok {
		return apperrors.NotFound("task not found")
	}
	copied := *task
	copied.Todos = nil
	r.s.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.s.tasks[id]; !ok {
		return apperrors.NotFound("task not found")
	}
	delete(r.s.tasks, id)
	return nil
}

func (r *fakeTaskRepo) ListByAssignee(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	var out []models.Task
	for _, t := range r.s.tasks {
		if t.AssigneeID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Task, error) {
	var out []models.Task
	for _, t := range r.s.tasks {
		if t.TeamID != nil && *t.TeamID == teamID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) ListVisible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID, sortBy, order string, offset, limit int) ([]models.Task, int64, error) {
	inTeams := make(map[uuid.UUID]bool, len(teamIDs))
	for _, id := range teamIDs {
		inTeams[id] = true
	}

	var visible []models.Task
	for _, t := range r.s.tasks {
		if t.AssigneeID == userID || t.CreatorID == userID || (t.TeamID != nil && inTeams[*t.TeamID]) {
			visible = append(visible, *t)
		}
	}

	total := int64(len(visible))
	if offset >= len(visible) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(visible) {
		end = len(visible)
	}
	return visible[offset:end], total, nil
}

type fakeTodoRepo struct{ s *fakeStore }

func (r *fakeTodoRepo) ListForTask(ctx context.Context, taskID uuid.UUID) ([]models.Todo, error) {
	return append([]models.Todo(nil), r.s.todos[taskID]...), nil
}

func (r *fakeTodoRepo) ReplaceForTask(ctx context.Context, taskID uuid.UUID, todos []models.Todo) error {
	r.s.todos[taskID] = append([]models.Todo(nil), todos...)
	return nil
}

func (r *fakeTodoRepo) SetAllCompleted(ctx context.Context, taskID uuid.UUID, completed bool) error {
	list := r.s.todos[taskID]
	for i := range list {
		list[i].Completed = completed
	}
	return nil
}

func (r *fakeTodoRepo) DeleteForTask(ctx context.Context, taskID uuid.UUID) error {
	delete(r.s.todos, taskID)
	return nil
}

type fakeTokenRepo struct{ s *fakeStore }

func (r *fakeTokenRepo) Create(ctx context.Context, token *models.Token) error {
	copied := *token
	r.s.tokens[token.JTI] = &copied
	return nil
}

func (r *fakeTokenRepo) FindByJTI(ctx context.Context, jti uuid.UUID) (*models.Token, error) {
	t, ok := r.s.tokens[jti]
	if !ok {
		return nil, apperrors.NotFound("token not found")
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTokenRepo) DeleteByJTI(ctx context.Context, jti uuid.UUID) error {
	delete(r.s.tokens, jti)
	return nil
}

func (r *fakeTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
