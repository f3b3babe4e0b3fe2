package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Task struct {
	ID          uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	Status      string         `json:"status" gorm:"not null;default:'pending'"`
	Priority    string         `json:"priority" gorm:"not null;default:'low'"`
	DueDate     time.Time      `json:"due_date" gorm:"type:timestamp"`
	Progress    int            `json:"progress" gorm:"not null;default:0"`
	AssigneeID  uuid.UUID      `json:"assignee_id" gorm:"type:uuid;not null"`
	CreatorID   uuid.UUID      `json:"creator_id" gorm:"type:uuid;not null"`
	TeamID      *uuid.UUID     `json:"team_id" gorm:"type:uuid"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Assignee *User  `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	Creator  *User  `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Team     *Team  `json:"team,omitempty" gorm:"foreignKey:TeamID"`
	Todos    []Todo `json:"todos,omitempty" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// IsPersonal reports whether the task has no team association.
// Personal tasks are always self-assigned.
func (t *Task) IsPersonal() bool {
	return t.TeamID == nil
}

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}
