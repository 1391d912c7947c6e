package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tasktracker/internal/model"
)

// MemoryTaskRepository keeps tasks in process memory. It backs demo mode,
// where the service runs without a database, and the behavioral test suite.
// All state is owned by the instance, so each test or process starts clean.
type MemoryTaskRepository struct {
	mu    sync.Mutex
	tasks []model.Task
}

var _ TaskRepositoryInterface = (*MemoryTaskRepository)(nil)

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{}
}

// cloneTask deep-copies the reference fields so neither side can reach the
// other's Tags slice or time pointers through a returned value.
func cloneTask(task model.Task) model.Task {
	if task.Tags != nil {
		tags := make(pq.StringArray, len(task.Tags))
		copy(tags, task.Tags)
		task.Tags = tags
	}
	if task.DueDate != nil {
		dueDate := *task.DueDate
		task.DueDate = &dueDate
	}
	if task.CompletedAt != nil {
		completedAt := *task.CompletedAt
		task.CompletedAt = &completedAt
	}
	return task
}

func (r *MemoryTaskRepository) Create(ctx context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	r.tasks = append(r.tasks, cloneTask(*task))
	return nil
}

func (r *MemoryTaskRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tasks {
		if r.tasks[i].ID == id && r.tasks[i].UserID == userID {
			task := cloneTask(r.tasks[i])
			return &task, nil
		}
	}
	return nil, ErrTaskNotFound
}

func matchesFilter(task *model.Task, filter TaskFilter) bool {
	if filter.Status != "" && filter.Status != "all" && task.Status != filter.Status {
		return false
	}
	if filter.Priority != "" && filter.Priority != "all" && task.Priority != filter.Priority {
		return false
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(task.Title), search) &&
			!strings.Contains(strings.ToLower(task.Description), search) {
			return false
		}
	}
	return true
}

func (r *MemoryTaskRepository) List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]model.Task, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []model.Task
	for i := range r.tasks {
		if r.tasks[i].UserID == userID && matchesFilter(&r.tasks[i], filter) {
			matched = append(matched, cloneTask(r.tasks[i]))
		}
	}

	// Newest first; the stable sort keeps insertion order for equal timestamps
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))

	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *MemoryTaskRepository) Update(ctx context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tasks {
		if r.tasks[i].ID == task.ID && r.tasks[i].UserID == task.UserID {
			r.tasks[i] = cloneTask(*task)
			return nil
		}
	}
	return ErrTaskNotFound
}

func (r *MemoryTaskRepository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.tasks {
		if r.tasks[i].ID == id && r.tasks[i].UserID == userID {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryTaskRepository) StatusCounts(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int64)
	for i := range r.tasks {
		if r.tasks[i].UserID == userID {
			counts[r.tasks[i].Status]++
		}
	}
	return counts, nil
}

func (r *MemoryTaskRepository) CountOverdue(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for i := range r.tasks {
		if r.tasks[i].UserID == userID && r.tasks[i].IsOverdue(now) {
			count++
		}
	}
	return count, nil
}
