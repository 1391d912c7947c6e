package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tasktracker/internal/model"
)

// TaskFilter narrows a List call. Empty string (or "all") disables the
// status and priority filters; an empty search string disables the search.
type TaskFilter struct {
	Status   string
	Priority string
	Search   string
	Offset   int
	Limit    int
}

type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]model.Task, int64, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	StatusCounts(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
	CountOverdue(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

var _ TaskRepositoryInterface = (*TaskRepository)(nil)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves a task by its ID, scoped to the owning user
func (r *TaskRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).First(&task, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

func (r *TaskRepository) filtered(ctx context.Context, userID uuid.UUID, filter TaskFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Task{}).Where("user_id = ?", userID)
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" && filter.Priority != "all" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	return q
}

// escapeLike neutralizes LIKE metacharacters so the search term matches as a
// literal substring, the same way the in-memory backend matches it.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// List retrieves one page of the user's tasks, newest first, along with the
// total number of tasks matching the filter before pagination.
func (r *TaskRepository) List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]model.Task, int64, error) {
	var total int64
	if err := r.filtered(ctx, userID, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []model.Task
	result := r.filtered(ctx, userID, filter).
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&tasks)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	return tasks, total, nil
}

// Update saves an existing task
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Save(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task by its ID, scoped to the owning user. The boolean
// reports whether a record was actually removed.
func (r *TaskRepository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// StatusCounts groups the user's tasks by status
func (r *TaskRepository) StatusCounts(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("status, count(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountOverdue counts the user's tasks whose due date has passed and which
// are not completed.
func (r *TaskRepository) CountOverdue(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND due_date IS NOT NULL AND due_date < ? AND status <> ?", userID, now, model.StatusCompleted).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}
