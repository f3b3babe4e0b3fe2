package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// GormStore implements Store on top of gorm. Storage errors are
// translated into the shared taxonomy here so services never inspect
// gorm errors directly.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository   { return &gormUserRepo{db: s.db} }
func (s *GormStore) Teams() TeamRepository   { return &gormTeamRepo{db: s.db} }
func (s *GormStore) Tasks() TaskRepository   { return &gormTaskRepo{db: s.db} }
func (s *GormStore) Todos() TodoRepository   { return &gormTodoRepo{db: s.db} }
func (s *GormStore) Tokens() TokenRepository { return &gormTokenRepo{db: s.db} }

func (s *GormStore) WithTransaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(what + " not found")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
		return apperrors.Conflict(what + " already exists")
	}
	return apperrors.Infrastructure(err)
}

type gormUserRepo struct {
	db *gorm.DB
}

func (r *gormUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *gormUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (r *gormUserRepo) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, "user")
}

func (r *gormUserRepo) Update(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error, "user")
}

func (r *gormUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error, "user")
}

func (r *gormUserRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, translate(err, "user")
	}
	return count, nil
}

type gormTeamRepo struct {
	db *gorm.DB
}

func (r *gormTeamRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&team).Error; err != nil {
		return nil, translate(err, "team")
	}
	return &team, nil
}

func (r *gormTeamRepo) Create(ctx context.Context, team *models.Team) error {
	return translate(r.db.WithContext(ctx).Create(team).Error, "team")
}

func (r *gormTeamRepo) Update(ctx context.Context, team *models.Team) error {
	return translate(r.db.WithContext(ctx).Save(team).Error, "team")
}

func (r *gormTeamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Delete(&models.Team{}, "id = ?", id).Error, "team")
}

func (r *gormTeamRepo) ListOwnedBy(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	var teams []models.Team
	err := r.db.WithContext(ctx).Where("owner_id = ?", userID).Order("id asc").Find(&teams).Error
	if err != nil {
		return nil, translate(err, "team")
	}
	return teams, nil
}

func (r *gormTeamRepo) ListMemberOf(ctx context.Context, userID uuid.UUID) ([]models.Team, error) {
	var teams []models.Team
	err := r.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Order("teams.id asc").
		Find(&teams).Error
	if err != nil {
		return nil, translate(err, "team")
	}
	return teams, nil
}

func (r *gormTeamRepo) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	member := models.TeamMember{TeamID: teamID, UserID: userID, JoinedAt: time.Now()}
	return translate(r.db.WithContext(ctx).Create(&member).Error, "team member")
}

func (r *gormTeamRepo) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{}).Error, "team member")
}

func (r *gormTeamRepo) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "team member")
	}
	return count > 0, nil
}

func (r *gormTeamRepo) ListMembers(ctx context.Context, teamID uuid.UUID) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Find(&members).Error
	if err != nil {
		return nil, translate(err, "team member")
	}
	return members, nil
}

func (r *gormTeamRepo) CountAssociations(ctx context.Context, userID uuid.UUID) (int64, error) {
	var memberships int64
	err := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("user_id = ?", userID).Count(&memberships).Error
	if err != nil {
		return 0, translate(err, "team member")
	}

	var ownerships int64
	err = r.db.WithContext(ctx).Model(&models.Team{}).
		Where("owner_id = ?", userID).Count(&ownerships).Error
	if err != nil {
		return 0, translate(err, "team")
	}

	return memberships + ownerships, nil
}

type gormTaskRepo struct {
	db *gorm.DB
}

func (r *gormTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Preload("Todos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Where("id = ?", id).First(&task).Error
	if err != nil {
		return nil, translate(err, "task")
	}
	return &task, nil
}

func (r *gormTaskRepo) Create(ctx context.Context, task *models.Task) error {
	// Checklist rows are written by the todo repository inside the
	// same transaction, not via association writes.
	return translate(r.db.WithContext(ctx).Omit("Todos", "Assignee", "Creator", "Team").Create(task).Error, "task")
}

func (r *gormTaskRepo) Update(ctx context.Context, task *models.Task) error {
	return translate(r.db.WithContext(ctx).Omit("Todos", "Assignee", "Creator", "Team").Save(task).Error, "task")
}

func (r *gormTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", id).Error, "task")
}

func (r *gormTaskRepo) ListByAssignee(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).Where("assignee_id = ?", userID).Find(&tasks).Error
	if err != nil {
		return nil, translate(err, "task")
	}
	return tasks, nil
}

func (r *gormTaskRepo) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Order("created_at desc").Find(&tasks).Error
	if err != nil {
		return nil, translate(err, "task")
	}
	return tasks, nil
}

var allowedSort = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"due_date":   true,
	"title":      true,
	"priority":   true,
}

func (r *gormTaskRepo) ListVisible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID, sortBy, order string, offset, limit int) ([]models.Task, int64, error) {
	if !allowedSort[sortBy] {
		sortBy = "created_at"
	}
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	query := r.db.WithContext(ctx).Model(&models.Task{})
	if len(teamIDs) > 0 {
		query = query.Where("assignee_id = ? OR creator_id = ? OR team_id IN ?", userID, userID, teamIDs)
	} else {
		query = query.Where("assignee_id = ? OR creator_id = ?", userID, userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "task")
	}

	var tasks []models.Task
	err := query.Order(sortBy + " " + order).Offset(offset).Limit(limit).Find(&tasks).Error
	if err != nil {
		return nil, 0, translate(err, "task")
	}
	return tasks, total, nil
}

type gormTodoRepo struct {
	db *gorm.DB
}

func (r *gormTodoRepo) ListForTask(ctx context.Context, taskID uuid.UUID) ([]models.Todo, error) {
	var todos []models.Todo
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("position asc").Find(&todos).Error
	if err != nil {
		return nil, translate(err, "todo")
	}
	return todos, nil
}

func (r *gormTodoRepo) ReplaceForTask(ctx context.Context, taskID uuid.UUID, todos []models.Todo) error {
	if err := r.DeleteForTask(ctx, taskID); err != nil {
		return err
	}
	if len(todos) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(&todos).Error, "todo")
}

func (r *gormTodoRepo) SetAllCompleted(ctx context.Context, taskID uuid.UUID, completed bool) error {
	return translate(r.db.WithContext(ctx).Model(&models.Todo{}).
		Where("task_id = ?", taskID).
		Update("completed", completed).Error, "todo")
}

func (r *gormTodoRepo) DeleteForTask(ctx context.Context, taskID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Delete(&models.Todo{}).Error, "todo")
}

type gormTokenRepo struct {
	db *gorm.DB
}

func (r *gormTokenRepo) Create(ctx context.Context, token *models.Token) error {
	return translate(r.db.WithContext(ctx).Create(token).Error, "token")
}

func (r *gormTokenRepo) FindByJTI(ctx context.Context, jti uuid.UUID) (*models.Token, error) {
	var token models.Token
	err := r.db.WithContext(ctx).
		Where("jti = ? AND expires_at > ?", jti, time.Now()).
		First(&token).Error
	if err != nil {
		return nil, translate(err, "token")
	}
	return &token, nil
}

func (r *gormTokenRepo) DeleteByJTI(ctx context.Context, jti uuid.UUID) error {
	return translate(r.db.WithContext(ctx).
		Where("jti = ?", jti).
		Delete(&models.Token{}).Error, "token")
}

func (r *gormTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&models.Token{})
	if result.Error != nil {
		return 0, translate(result.Error, "token")
	}
	return result.RowsAffected, nil
}
