package services

import (
	"errors"
	"testing"

	"team-tasks/backend/internal/apperrors"
	"team-tasks/backend/internal/models"

	"github.com/gofrs/uuid"
)

func makeTodos(completed, total int) []models.Todo {
	todos := make([]models.Todo, total)
	for i := range todos {
		todos[i] = models.Todo{
			ID:        uuid.Must(uuid.NewV4()),
			Text:      "item",
			Completed: i < completed,
			Position:  i,
		}
	}
	return todos
}

func TestRecomputeProgress(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      int
	}{
		{"empty checklist", 0, 0, 0},
		{"none done", 0, 4, 0},
		{"all done", 4, 4, 100},
		{"half done", 1, 2, 50},
		{"one third rounds down", 1, 3, 33},
		{"two thirds rounds up", 2, 3, 67},
		{"one sixth rounds up", 1, 6, 17},
		{"five of six", 5, 6, 83},
		{"one of seven", 1, 7, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecomputeProgress(makeTodos(tt.completed, tt.total))
			if got != tt.want {
				t.Errorf("RecomputeProgress(%d/%d) = %d, want %d", tt.completed, tt.total, got, tt.want)
			}
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		progress int
		want     string
	}{
		{0, models.StatusPending},
		{1, models.StatusInProgress},
		{50, models.StatusInProgress},
		{99, models.StatusInProgress},
		{100, models.StatusCompleted},
	}

	for _, tt := range tests {
		if got := DeriveStatus(tt.progress); got != tt.want {
			t.Errorf("DeriveStatus(%d) = %q, want %q", tt.progress, got, tt.want)
		}
	}
}

func TestApplyStatusChangeToCompleted(t *testing.T) {
	task := &models.Task{
		Status:   models.StatusInProgress,
		Progress: 50,
		Todos:    makeTodos(1, 2),
	}

	todosChanged, err := ApplyStatusChange(task, models.StatusCompleted)
	if err != nil {
		t.Fatalf("ApplyStatusChange() error = %v", err)
	}
	if !todosChanged {
		t.Error("todosChanged = false, want true")
	}
	if task.Progress != 100 {
		t.Errorf("Progress = %d, want 100", task.Progress)
	}
	for i, todo := range task.Todos {
		if !todo.Completed {
			t.Errorf("Todos[%d].Completed = false, want true", i)
		}
	}
}

func TestApplyStatusChangeOutOfCompleted(t *testing.T) {
	task := &models.Task{
		Status:   models.StatusCompleted,
		Progress: 100,
		Todos:    makeTodos(2, 2),
	}

	todosChanged, err := ApplyStatusChange(task, models.StatusPending)
	if err != nil {
		t.Fatalf("ApplyStatusChange() error = %v", err)
	}
	if !todosChanged {
		t.Error("todosChanged = false, want true")
	}
	if task.Progress != 0 {
		t.Errorf("Progress = %d, want 0", task.Progress)
	}
	for i, todo := range task.Todos {
		if todo.Completed {
			t.Errorf("Todos[%d].Completed = true, want false", i)
		}
	}
}

func TestApplyStatusChangeNeutralTransition(t *testing.T) {
	// pending -> in_progress touches neither progress nor todos.
	task := &models.Task{
		Status:   models.StatusPending,
		Progress: 33,
		Todos:    makeTodos(1, 3),
	}

	todosChanged, err := ApplyStatusChange(task, models.StatusInProgress)
	if err != nil {
		t.Fatalf("ApplyStatusChange() error = %v", err)
	}
	if todosChanged {
		t.Error("todosChanged = true, want false")
	}
	if task.Progress != 33 {
		t.Errorf("Progress = %d, want 33", task.Progress)
	}
	if !task.Todos[0].Completed || task.Todos[1].Completed {
		t.Error("todos were modified by a neutral status transition")
	}
}

func TestApplyStatusChangeCompletedToCompleted(t *testing.T) {
	// Re-asserting completed is idempotent: no todo writes needed.
	task := &models.Task{
		Status:   models.StatusCompleted,
		Progress: 100,
		Todos:    makeTodos(2, 2),
	}

	todosChanged, err := ApplyStatusChange(task, models.StatusCompleted)
	if err != nil {
		t.Fatalf("ApplyStatusChange() error = %v", err)
	}
	if todosChanged {
		t.Error("todosChanged = true, want false")
	}
	if task.Progress != 100 {
		t.Errorf("Progress = %d, want 100", task.Progress)
	}
}

func TestApplyStatusChangeInvalidStatus(t *testing.T) {
	task := &models.Task{Status: models.StatusPending}
	if _, err := ApplyStatusChange(task, "archived"); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("ApplyStatusChange() error = %v, want bad request", err)
	}
}

func TestApplyChecklistReplace(t *testing.T) {
	tests := []struct {
		name         string
		completed    int
		total        int
		wantProgress int
		wantStatus   string
	}{
		{"empty list resets", 0, 0, 0, models.StatusPending},
		{"none done", 0, 3, 0, models.StatusPending},
		{"partial", 1, 3, 33, models.StatusInProgress},
		{"all done", 3, 3, 100, models.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &models.Task{
				ID:     uuid.Must(uuid.NewV4()),
				Status: models.StatusInProgress,
			}
			ApplyChecklistReplace(task, makeTodos(tt.completed, tt.total))

			if task.Progress != tt.wantProgress {
				t.Errorf("Progress = %d, want %d", task.Progress, tt.wantProgress)
			}
			if task.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", task.Status, tt.wantStatus)
			}
			for i, todo := range task.Todos {
				if todo.TaskID != task.ID {
					t.Errorf("Todos[%d].TaskID not stamped", i)
				}
				if todo.Position != i {
					t.Errorf("Todos[%d].Position = %d, want %d", i, todo.Position, i)
				}
			}
		})
	}
}

func TestApplyChecklistReplaceIsIdempotent(t *testing.T) {
	task := &models.Task{ID: uuid.Must(uuid.NewV4())}
	todos := makeTodos(1, 3)

	ApplyChecklistReplace(task, todos)
	progress, status := task.Progress, task.Status

	ApplyChecklistReplace(task, task.Todos)
	if task.Progress != progress || task.Status != status {
		t.Errorf("second replace changed state: progress %d -> %d, status %q -> %q",
			progress, task.Progress, status, task.Status)
	}
}

func TestApplyPatchStatusPrecedence(t *testing.T) {
	// Explicit status wins over explicit progress.
	status := models.StatusCompleted
	progress := 20
	task := &models.Task{
		Status:   models.StatusPending,
		Progress: 0,
		Todos:    makeTodos(0, 2),
	}

	todosChanged, err := ApplyPatch(task, TaskPatch{Status: &status, Progress: &progress})
	if err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
	if task.Status != models.StatusCompleted {
		t.Errorf("Status = %q, want completed", task.Status)
	}
	if task.Progress != 100 {
		t.Errorf("Progress = %d, want 100 (status wins over explicit progress)", task.Progress)
	}
	if !todosChanged {
		t.Error("todosChanged = false, want true for a transition into completed")
	}
}

func TestApplyPatchProgressAloneKeepsStatus(t *testing.T) {
	progress := 60
	task := &models.Task{
		Status:   models.StatusPending,
		Progress: 0,
	}

	todosChanged, err := ApplyPatch(task, TaskPatch{Progress: &progress})
	if err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
	if todosChanged {
		t.Error("todosChanged = true, want false for a progress-only patch")
	}
	if task.Progress != 60 {
		t.Errorf("Progress = %d, want 60", task.Progress)
	}
	if task.Status != models.StatusPending {
		t.Errorf("Status = %q, want pending (progress alone never moves status)", task.Status)
	}
}

func TestApplyPatchProgressOutOfRange(t *testing.T) {
	for _, progress := range []int{-1, 101} {
		task := &models.Task{Status: models.StatusPending}
		p := progress
		if _, err := ApplyPatch(task, TaskPatch{Progress: &p}); !errors.Is(err, apperrors.ErrBadRequest) {
			t.Errorf("ApplyPatch(progress=%d) error = %v, want bad request", progress, err)
		}
	}
}

func TestApplyPatchRecomputesFromTodos(t *testing.T) {
	title := "renamed"
	task := &models.Task{
		Title:    "original",
		Status:   models.StatusInProgress,
		Progress: 0,
		Todos:    makeTodos(1, 2),
	}

	todosChanged, err := ApplyPatch(task, TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
	if todosChanged {
		t.Error("todosChanged = true, want false for a generic field update")
	}
	if task.Title != "renamed" {
		t.Errorf("Title = %q, want renamed", task.Title)
	}
	if task.Progress != 50 {
		t.Errorf("Progress = %d, want 50 (recomputed from todos)", task.Progress)
	}
	if task.Status != models.StatusInProgress {
		t.Errorf("Status = %q, want unchanged in_progress", task.Status)
	}
}

func TestApplyPatchInvalidPriority(t *testing.T) {
	priority := "urgent"
	task := &models.Task{Status: models.StatusPending, Priority: models.PriorityLow}
	if _, err := ApplyPatch(task, TaskPatch{Priority: &priority}); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("ApplyPatch() error = %v, want bad request", err)
	}
	if task.Priority != models.PriorityLow {
		t.Errorf("Priority = %q, want unchanged low", task.Priority)
	}
}
