package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

// DefaultPageLimit is used when a list request carries no usable limit.
const DefaultPageLimit = 10

var (
	taskOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktracker_task_operations_total",
			Help: "Total number of task store operations",
		},
		[]string{"operation", "status"},
	)

	taskOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasktracker_task_operation_duration_seconds",
			Help:    "Duration of task store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Clock supplies the current time so tests can pin it.
type Clock func() time.Time

// TaskService owns task validation, derived-field maintenance and pagination
// math. It works against any TaskRepositoryInterface backend.
type TaskService struct {
	repo repository.TaskRepositoryInterface
	now  Clock
}

func NewTaskService(repo repository.TaskRepositoryInterface, now Clock) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{repo: repo, now: now}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     string
	Tags        []string
}

// UpdateTaskInput carries a partial update; nil fields are left unchanged.
// For DueDate an explicit empty string clears the field.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *string
	Tags        []string
}

type ListTasksOptions struct {
	Page     int
	Limit    int
	Status   string
	Priority string
	Search   string
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalTasks  int64 `json:"totalTasks"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

type TaskPage struct {
	Tasks      []model.Task `json:"tasks"`
	Pagination Pagination   `json:"pagination"`
}

func observe(operation string, start time.Time, err error) {
	taskOpDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	taskOpsTotal.WithLabelValues(operation, status).Inc()
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	// Limits count characters, not bytes, so Cyrillic titles are not cut in half
	if n := utf8.RuneCountInString(title); n == 0 || n > 100 {
		return "", invalidField("title", "Title is required and must be less than 100 characters")
	}
	return title, nil
}

func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > 500 {
		return "", invalidField("description", "Description must be less than 500 characters")
	}
	return description, nil
}

// parseDueDate accepts RFC3339 timestamps and plain dates.
func parseDueDate(value string) (*time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		parsed, err = time.Parse("2006-01-02", value)
	}
	if err != nil {
		return nil, invalidField("dueDate", "Due date must be a valid date")
	}
	return &parsed, nil
}

// Create validates the input and stores a new task for the user.
func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (task *model.Task, err error) {
	start := time.Now()
	defer func() { observe("create", start, err) }()

	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	description, err := validateDescription(input.Description)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = model.StatusPending
	}
	if !model.ValidStatus(status) {
		return nil, invalidField("status", "Status must be pending, in-progress, or completed")
	}

	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return nil, invalidField("priority", "Priority must be low, medium, or high")
	}

	var dueDate *time.Time
	if input.DueDate != "" {
		if dueDate, err = parseDueDate(input.DueDate); err != nil {
			return nil, err
		}
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	now := s.now()
	task = &model.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Priority:    priority,
		DueDate:     dueDate,
		Tags:        pq.StringArray(tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.ApplyStatus(status, now)

	if err = s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Get returns the user's task or repository.ErrTaskNotFound. Tasks owned by
// other users are reported as not found, not as forbidden.
func (s *TaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*model.Task, error) {
	return s.repo.GetByID(ctx, userID, taskID)
}

// List returns one page of the user's tasks plus pagination metadata.
func (s *TaskService) List(ctx context.Context, userID uuid.UUID, opts ListTasksOptions) (page *TaskPage, err error) {
	start := time.Now()
	defer func() { observe("list", start, err) }()

	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageLimit
	}

	filter := repository.TaskFilter{
		Status:   opts.Status,
		Priority: opts.Priority,
		Search:   opts.Search,
		Offset:   (opts.Page - 1) * opts.Limit,
		Limit:    opts.Limit,
	}

	tasks, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	totalPages := int((total + int64(opts.Limit) - 1) / int64(opts.Limit))

	return &TaskPage{
		Tasks: tasks,
		Pagination: Pagination{
			CurrentPage: opts.Page,
			TotalPages:  totalPages,
			TotalTasks:  total,
			HasNextPage: opts.Page < totalPages,
			HasPrevPage: opts.Page > 1,
		},
	}, nil
}

// Update applies a partial update to the user's task, re-deriving the
// completion fields and refreshing UpdatedAt.
func (s *TaskService) Update(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (task *model.Task, err error) {
	start := time.Now()
	defer func() { observe("update", start, err) }()

	task, err = s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		var title string
		if title, err = validateTitle(*input.Title); err != nil {
			return nil, err
		}
		task.Title = title
	}
	if input.Description != nil {
		var description string
		if description, err = validateDescription(*input.Description); err != nil {
			return nil, err
		}
		task.Description = description
	}
	if input.Priority != nil {
		if !model.ValidPriority(*input.Priority) {
			return nil, invalidField("priority", "Priority must be low, medium, or high")
		}
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		if *input.DueDate == "" {
			// Explicit empty string clears the due date; an absent key
			// leaves it unchanged.
			task.DueDate = nil
		} else {
			var dueDate *time.Time
			if dueDate, err = parseDueDate(*input.DueDate); err != nil {
				return nil, err
			}
			task.DueDate = dueDate
		}
	}
	if input.Tags != nil {
		task.Tags = pq.StringArray(input.Tags)
	}

	now := s.now()
	if input.Status != nil {
		if !model.ValidStatus(*input.Status) {
			return nil, invalidField("status", "Status must be pending, in-progress, or completed")
		}
		task.ApplyStatus(*input.Status, now)
	}
	task.UpdatedAt = now

	if err = s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes the user's task. The boolean reports whether a record
// actually existed for that user.
func (s *TaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) (deleted bool, err error) {
	start := time.Now()
	defer func() { observe("delete", start, err) }()
	return s.repo.Delete(ctx, userID, taskID)
}
