package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Todo struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	TaskID    uuid.UUID `json:"task_id" gorm:"type:uuid;not null;index"`
	Text      string    `json:"text" gorm:"not null"`
	Completed bool      `json:"completed" gorm:"not null;default:false"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
