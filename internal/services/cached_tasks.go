package services

import (
	"context"
	"time"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/cache"
	"team-tasks/backend/internal/models"

	"github.com/gofrs/uuid"
)

const taskCacheTTL = 5 * time.Minute

// CachedTaskService is a read-through wrapper over TaskService. Only
// the task-by-id lookup is cached; the access check still runs on
// every read, and every mutation path invalidates the entry.
type CachedTaskService struct {
	inner  TaskService
	cache  cache.Cache
	policy *AccessPolicy
}

func NewCachedTaskService(inner TaskService, c cache.Cache, policy *AccessPolicy) *CachedTaskService {
	return &CachedTaskService{inner: inner, cache: c, policy: policy}
}

func taskCacheKey(id uuid.UUID) string {
	return "task:" + id.String()
}

func (s *CachedTaskService) GetTaskByID(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Task, error) {
	var cached models.Task
	if err := s.cache.Get(taskCacheKey(id), &cached); err == nil {
		if !s.policy.CanViewTask(ctx, actor, &cached) {
			return nil, apperrors.Forbidden("no access to this task")
		}
		return &cached, nil
	}

	task, err := s.inner.GetTaskByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(taskCacheKey(id), task, taskCacheTTL)
	return task, nil
}

func (s *CachedTaskService) CreateTask(ctx context.Context, actor *models.User, draft TaskDraft) (*models.Task, error) {
	return s.inner.CreateTask(ctx, actor, draft)
}

func (s *CachedTaskService) UpdateTask(ctx context.Context, actor *models.User, id uuid.UUID, patch TaskPatch) (*models.Task, error) {
	task, err := s.inner.UpdateTask(ctx, actor, id, patch)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(taskCacheKey(id))
	return task, nil
}

func (s *CachedTaskService) SetTaskStatus(ctx context.Context, actor *models.User, id uuid.UUID, status string) (*models.Task, error) {
	task, err := s.inner.SetTaskStatus(ctx, actor, id, status)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(taskCacheKey(id))
	return task, nil
}

func (s *CachedTaskService) ReplaceChecklist(ctx context.Context, actor *models.User, id uuid.UUID, items []ChecklistItem) (*models.Task, error) {
	task, err := s.inner.ReplaceChecklist(ctx, actor, id, items)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(taskCacheKey(id))
	return task, nil
}

func (s *CachedTaskService) DeleteTask(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := s.inner.DeleteTask(ctx, actor, id); err != nil {
		return err
	}
	s.cache.Delete(taskCacheKey(id))
	return nil
}

func (s *CachedTaskService) GetTasksForActor(ctx context.Context, actor *models.User, sortBy, order, page, pageSize string) ([]models.Task, int64, error) {
	return s.inner.GetTasksForActor(ctx, actor, sortBy, order, page, pageSize)
}
