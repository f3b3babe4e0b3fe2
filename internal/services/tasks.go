package services

import (
	"context"
	"strconv"
	"time"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/models"
	"team-tasks/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

// ChecklistItem is one incoming todo line in a checklist replacement
// or a task draft.
type ChecklistItem struct {
	Text      string `json:"text" binding:"required"`
	Completed bool   `json:"completed"`
}

// TaskDraft is a task creation request. AssigneeID nil means
// self-assignment; TeamID nil means personal task or shared-team
// fallback, depending on the assignee.
type TaskDraft struct {
	Title       string
	Description string
	Priority    string
	DueDate     time.Time
	AssigneeID  *uuid.UUID
	TeamID      *uuid.UUID
	Todos       []ChecklistItem
}

type TaskService interface {
	CreateTask(ctx context.Context, actor *models.User, draft TaskDraft) (*models.Task, error)
	GetTaskByID(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Task, error)
	UpdateTask(ctx context.Context, actor *models.User, id uuid.UUID, patch TaskPatch) (*models.Task, error)
	SetTaskStatus(ctx context.Context, actor *models.User, id uuid.UUID, status string) (*models.Task, error)
	ReplaceChecklist(ctx context.Context, actor *models.User, id uuid.UUID, items []ChecklistItem) (*models.Task, error)
	DeleteTask(ctx context.Context, actor *models.User, id uuid.UUID) error
	GetTasksForActor(ctx context.Context, actor *models.User, sortBy, order, page, pageSize string) ([]models.Task, int64, error)
}

type TaskServiceImpl struct {
	store      repositories.Store
	membership MembershipService
	policy     *AccessPolicy
	engine     *AssignmentEngine
}

func NewTaskService(store repositories.Store, membership MembershipService, policy *AccessPolicy, engine *AssignmentEngine) *TaskServiceImpl {
	return &TaskServiceImpl{
		store:      store,
		membership: membership,
		policy:     policy,
		engine:     engine,
	}
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, actor *models.User, draft TaskDraft) (*models.Task, error) {
	if draft.Title == "" {
		return nil, apperrors.BadRequest("title is required")
	}
	priority := draft.Priority
	if priority == "" {
		priority = models.PriorityLow
	}
	if !models.ValidPriority(priority) {
		return nil, apperrors.BadRequest("invalid priority: " + priority)
	}

	resolution, err := s.engine.ResolveCreate(ctx, actor, draft.AssigneeID, draft.TeamID)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    priority,
		DueDate:     draft.DueDate,
		Status:      models.StatusPending,
		AssigneeID:  resolution.Assignee.ID,
		CreatorID:   actor.ID,
		TeamID:      resolution.TeamID,
	}

	todos := buildChecklist(task.ID, draft.Todos)
	ApplyChecklistReplace(task, todos)

	if err := checkTaskInvariants(task); err != nil {
		return nil, err
	}

	err = s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.Tasks().Create(ctx, task); err != nil {
			return err
		}
		if len(task.Todos) > 0 {
			return tx.Todos().ReplaceForTask(ctx, task.ID, task.Todos)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskServiceImpl) GetTaskByID(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewTask(ctx, actor, task) {
		return nil, apperrors.Forbidden("no access to this task")
	}
	return task, nil
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, actor *models.User, id uuid.UUID, patch TaskPatch) (*models.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanModifyTask(ctx, actor, task) {
		return nil, apperrors.Forbidden("no access to this task")
	}

	if patch.AssigneeID != nil && *patch.AssigneeID != task.AssigneeID {
		resolution, err := s.engine.ResolveReassign(ctx, actor, task, *patch.AssigneeID)
		if err != nil {
			return nil, err
		}
		task.AssigneeID = resolution.Assignee.ID
		task.TeamID = resolution.TeamID
	}

	todosChanged, err := ApplyPatch(task, patch)
	if err != nil {
		return nil, err
	}

	if err := checkTaskInvariants(task); err != nil {
		return nil, err
	}

	err = s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.Tasks().Update(ctx, task); err != nil {
			return err
		}
		if todosChanged {
			return tx.Todos().SetAllCompleted(ctx, task.ID, task.Status == models.StatusCompleted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskServiceImpl) SetTaskStatus(ctx context.Context, actor *models.User, id uuid.UUID, status string) (*models.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanModifyTask(ctx, actor, task) {
		return nil, apperrors.Forbidden("no access to this task")
	}

	todosChanged, err := ApplyStatusChange(task, status)
	if err != nil {
		return nil, err
	}

	if err := checkTaskInvariants(task); err != nil {
		return nil, err
	}

	err = s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.Tasks().Update(ctx, task); err != nil {
			return err
		}
		if todosChanged {
			return tx.Todos().SetAllCompleted(ctx, task.ID, task.Status == models.StatusCompleted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskServiceImpl) ReplaceChecklist(ctx context.Context, actor *models.User, id uuid.UUID, items []ChecklistItem) (*models.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanModifyTask(ctx, actor, task) {
		return nil, apperrors.Forbidden("no access to this task")
	}

	todos := buildChecklist(task.ID, items)
	ApplyChecklistReplace(task, todos)

	if err := checkTaskInvariants(task); err != nil {
		return nil, err
	}

	// Delete-and-insert of the checklist plus the task row must land
	// together; a partially replaced checklist must not be
	// observable.
	err = s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.Todos().ReplaceForTask(ctx, task.ID, task.Todos); err != nil {
			return err
		}
		return tx.Tasks().Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, actor *models.User, id uuid.UUID) error {
	task, err := s.store.Tasks().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.policy.CanDeleteTask(ctx, actor, task) {
		return apperrors.Forbidden("no access to delete this task")
	}

	return s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.Todos().DeleteForTask(ctx, task.ID); err != nil {
			return err
		}
		return tx.Tasks().Delete(ctx, task.ID)
	})
}

func (s *TaskServiceImpl) GetTasksForActor(ctx context.Context, actor *models.User, sortBy, order, page, pageSize string) ([]models.Task, int64, error) {
	teams, err := s.membership.TeamsOwnedOrJoined(ctx, actor.ID)
	if err != nil {
		return nil, 0, err
	}
	// Members and owners alike see their teams' task lists; write
	// access is gated separately by the policy.
	teamIDs := make([]uuid.UUID, 0, len(teams))
	for _, t := range teams {
		teamIDs = append(teamIDs, t.ID)
	}

	p := 1
	ps := 10
	if v, err := strconv.Atoi(page); err == nil && v > 0 {
		p = v
	}
	if v, err := strconv.Atoi(pageSize); err == nil && v > 0 && v <= 100 {
		ps = v
	}
	offset := (p - 1) * ps

	return s.store.Tasks().ListVisible(ctx, actor.ID, teamIDs, sortBy, order, offset, ps)
}

func buildChecklist(taskID uuid.UUID, items []ChecklistItem) []models.Todo {
	todos := make([]models.Todo, 0, len(items))
	for i, item := range items {
		todos = append(todos, models.Todo{
			ID:        uuid.Must(uuid.NewV4()),
			TaskID:    taskID,
			Text:      item.Text,
			Completed: item.Completed,
			Position:  i,
		})
	}
	return todos
}

// checkTaskInvariants is the single source of truth for cross-field
// task legality, called at every mutation boundary.
func checkTaskInvariants(task *models.Task) error {
	if task.IsPersonal() && task.AssigneeID != task.CreatorID {
		return apperrors.Forbidden("personal tasks must be self-assigned")
	}
	if task.Progress < 0 || task.Progress > 100 {
		return apperrors.BadRequest("progress must be between 0 and 100")
	}
	if !models.ValidStatus(task.Status) {
		return apperrors.BadRequest("invalid status: " + task.Status)
	}
	if !models.ValidPriority(task.Priority) {
		return apperrors.BadRequest("invalid priority: " + task.Priority)
	}
	return nil
}
