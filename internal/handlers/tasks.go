package handlers

import (
	"net/http"
	"time"

	"team-tasks/backend/internal/middleware"
	"team-tasks/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var taskInput struct {
		Title       string                   `json:"title" binding:"required"`
		Description string                   `json:"description"`
		Priority    string                   `json:"priority"`
		DueDate     *time.Time               `json:"due_date"`
		AssigneeID  *string                  `json:"assignee_id"`
		TeamID      *string                  `json:"team_id"`
		Todos       []services.ChecklistItem `json:"todos"`
	}
	if err := c.ShouldBindJSON(&taskInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft := services.TaskDraft{
		Title:       taskInput.Title,
		Description: taskInput.Description,
		Priority:    taskInput.Priority,
		Todos:       taskInput.Todos,
	}
	if taskInput.DueDate != nil {
		draft.DueDate = *taskInput.DueDate
	}

	var err error
	if draft.AssigneeID, err = parseOptionalUUID(taskInput.AssigneeID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignee_id format"})
		return
	}
	if draft.TeamID, err = parseOptionalUUID(taskInput.TeamID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid team_id format"})
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), actor, draft)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id format"})
		return
	}

	var taskInput struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Priority    *string    `json:"priority"`
		DueDate     *time.Time `json:"due_date"`
		Status      *string    `json:"status"`
		Progress    *int       `json:"progress"`
		AssigneeID  *string    `json:"assignee_id"`
	}
	if err := c.ShouldBindJSON(&taskInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := services.TaskPatch{
		Title:       taskInput.Title,
		Description: taskInput.Description,
		Priority:    taskInput.Priority,
		DueDate:     taskInput.DueDate,
		Status:      taskInput.Status,
		Progress:    taskInput.Progress,
	}
	if patch.AssigneeID, err = parseOptionalUUID(taskInput.AssigneeID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignee_id format"})
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), actor, id, patch)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) SetStatus(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id format"})
		return
	}

	var statusInput struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&statusInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.SetTaskStatus(c.Request.Context(), actor, id, statusInput.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) ReplaceChecklist(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id format"})
		return
	}

	var checklistInput struct {
		Todos []services.ChecklistItem `json:"todos"`
	}
	if err := c.ShouldBindJSON(&checklistInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.ReplaceChecklist(c.Request.Context(), actor, id, checklistInput.Todos)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id format"})
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), actor, id); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id format"})
		return
	}

	task, err := h.taskService.GetTaskByID(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sortBy := c.DefaultQuery("sortBy", "created_at")
	order := c.DefaultQuery("order", "desc")
	page := c.DefaultQuery("page", "1")
	pageSize := c.DefaultQuery("pageSize", "10")

	tasks, total, err := h.taskService.GetTasksForActor(c.Request.Context(), actor, sortBy, order, page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": total,
	})
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := uuid.FromString(*s)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
