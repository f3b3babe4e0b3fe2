package services

import (
	"math"
	"time"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/models"

	"github.com/gofrs/uuid"
)

// TaskPatch is a structured update with explicit per-field presence:
// a nil field means "leave as stored", a set pointer means "write
// this". That keeps the precedence rules below unambiguous.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *string
	DueDate     *time.Time
	Status      *string
	Progress    *int
	AssigneeID  *uuid.UUID
}

// Task lifecycle derivation rules, applied in precedence order on
// every mutation:
//
//  1. Explicit status write: entering completed completes every todo
//     and forces progress 100; leaving completed (from progress 100)
//     resets progress to 0 and un-completes all todos.
//  2. Explicit progress write without status: progress stored as
//     given, status untouched.
//  3. Checklist replace: progress recomputed from the new items,
//     status derived from that progress.
//  4. Generic update with existing todos and no explicit progress:
//     progress recomputed from todos, status untouched.

// RecomputeProgress returns round(100 * completed/total), 0 for an
// empty checklist. Rounding is half-up: 1 of 3 completed gives 33,
// 1 of 2 gives 50.
func RecomputeProgress(todos []models.Todo) int {
	if len(todos) == 0 {
		return 0
	}
	completed := 0
	for _, todo := range todos {
		if todo.Completed {
			completed++
		}
	}
	return roundHalfUp(100 * float64(completed) / float64(len(todos)))
}

// DeriveStatus maps progress to status: 0 is pending, 100 is
// completed, anything in between is in progress.
func DeriveStatus(progress int) string {
	switch {
	case progress <= 0:
		return models.StatusPending
	case progress >= 100:
		return models.StatusCompleted
	default:
		return models.StatusInProgress
	}
}

// ApplyStatusChange performs rule 1 on the task in place and reports
// whether the todos were touched (so the caller knows to persist
// them).
func ApplyStatusChange(task *models.Task, newStatus string) (todosChanged bool, err error) {
	if !models.ValidStatus(newStatus) {
		return false, apperrors.BadRequest("invalid status: " + newStatus)
	}

	previous := task.Status
	task.Status = newStatus

	if newStatus == models.StatusCompleted && previous != models.StatusCompleted {
		task.Progress = 100
		for i := range task.Todos {
			task.Todos[i].Completed = true
		}
		return len(task.Todos) > 0, nil
	}

	if previous == models.StatusCompleted && newStatus != models.StatusCompleted && task.Progress == 100 {
		task.Progress = 0
		for i := range task.Todos {
			task.Todos[i].Completed = false
		}
		return len(task.Todos) > 0, nil
	}

	return false, nil
}

// ApplyChecklistReplace performs rule 3: swap in the new checklist,
// recompute progress, derive status from it.
func ApplyChecklistReplace(task *models.Task, todos []models.Todo) {
	for i := range todos {
		todos[i].TaskID = task.ID
		todos[i].Position = i
	}
	task.Todos = todos
	task.Progress = RecomputeProgress(todos)
	task.Status = DeriveStatus(task.Progress)
}

// ApplyPatch performs rules 1, 2 and 4 for a generic field update.
// Explicit status takes precedence over everything; explicit progress
// suppresses recomputation; otherwise progress is recomputed from the
// current todos while status stays as supplied or stored. The returned
// flag reports whether the todos were touched, exactly as
// ApplyStatusChange reports it — a status write that stays on the same
// side of completed leaves them alone.
func ApplyPatch(task *models.Task, patch TaskPatch) (todosChanged bool, err error) {
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		if !models.ValidPriority(*patch.Priority) {
			return false, apperrors.BadRequest("invalid priority: " + *patch.Priority)
		}
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = *patch.DueDate
	}

	if patch.Status != nil {
		return ApplyStatusChange(task, *patch.Status)
	}

	if patch.Progress != nil {
		if *patch.Progress < 0 || *patch.Progress > 100 {
			return false, apperrors.BadRequest("progress must be between 0 and 100")
		}
		// Progress alone never moves status.
		task.Progress = *patch.Progress
		return false, nil
	}

	if len(task.Todos) > 0 {
		// Recompute from the checklist, but leave status alone:
		// only a checklist replacement drives status.
		task.Progress = RecomputeProgress(task.Todos)
	}
	return false, nil
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
