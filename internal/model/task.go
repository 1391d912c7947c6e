package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Task struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user"`
	Title       string         `gorm:"type:varchar(100);not null" json:"title"`
	Description string         `gorm:"type:varchar(500)" json:"description"`
	Status      string         `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	Priority    string         `gorm:"type:varchar(10);not null;default:medium" json:"priority"`
	DueDate     *time.Time     `json:"dueDate"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	Completed   bool           `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time     `json:"completedAt"`
	CreatedAt   time.Time      `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ApplyStatus sets the status and keeps the derived completion fields
// consistent with it. CompletedAt is set only on the first transition into
// the completed status and cleared whenever the task leaves it.
func (t *Task) ApplyStatus(status string, now time.Time) {
	t.Status = status
	if status == StatusCompleted {
		t.Completed = true
		if t.CompletedAt == nil {
			completedAt := now
			t.CompletedAt = &completedAt
		}
		return
	}
	t.Completed = false
	t.CompletedAt = nil
}

// IsOverdue reports whether the due date has passed for a task that is not
// yet completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}
