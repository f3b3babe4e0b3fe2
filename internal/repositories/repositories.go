package repositories

import (
	"context"

	"team-tasks/backend/internal/models"

	"github.com/gofrs/uuid"
)

// Store is the storage collaborator the core talks to. All entity
// reads and writes go through these repositories; multi-entity write
// sequences run inside WithTransaction so partial application is
// never observable.
type Store interface {
	Users() UserRepository
	Teams() TeamRepository
	Tasks() TaskRepository
	Todos() TodoRepository
	Tokens() TokenRepository

	// WithTransaction runs fn against a transactional view of the
	// store. Returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(Store) error) error
}

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type TeamRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	Create(ctx context.Context, team *models.Team) error
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListOwnedBy(ctx context.Context, userID uuid.UUID) ([]models.Team, error)
	ListMemberOf(ctx context.Context, userID uuid.UUID) ([]models.Team, error)

	AddMember(ctx context.Context, teamID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error)

	// CountAssociations returns memberships plus ownerships for a
	// user; user deletion requires it to be zero.
	CountAssociations(ctx context.Context, userID uuid.UUID) (int64, error)
}

type TaskRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListByAssignee(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Task, error)
	ListVisible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID, sortBy, order string, offset, limit int) ([]models.Task, int64, error)
}

type TodoRepository interface {
	ListForTask(ctx context.Context, taskID uuid.UUID) ([]models.Todo, error)
	// ReplaceForTask deletes the task's current checklist and inserts
	// the given items in order. Must run inside a transaction.
	ReplaceForTask(ctx context.Context, taskID uuid.UUID, todos []models.Todo) error
	SetAllCompleted(ctx context.Context, taskID uuid.UUID, completed bool) error
	DeleteForTask(ctx context.Context, taskID uuid.UUID) error
}

type TokenRepository interface {
	Create(ctx context.Context, token *models.Token) error
	FindByJTI(ctx context.Context, jti uuid.UUID) (*models.Token, error)
	DeleteByJTI(ctx context.Context, jti uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}
