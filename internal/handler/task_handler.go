package handler

import (
	"errors"
	"net/http"
	"strconv"

	"tasktracker/internal/repository"
	"tasktracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	tasks *service.TaskService
	stats *service.StatsService
}

func NewTaskHandler(tasks *service.TaskService, stats *service.StatsService) *TaskHandler {
	return &TaskHandler{tasks: tasks, stats: stats}
}

// CreateTaskRequest представляет запрос на создание задачи. Обязательность
// заголовка проверяет сервис, чтобы ответ о пустом поле имел ту же форму,
// что и остальные ошибки валидации
type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	DueDate     string   `json:"dueDate"`
	Tags        []string `json:"tags"`
}

// UpdateTaskRequest представляет частичное обновление задачи; отсутствующие
// поля не изменяются
type UpdateTaskRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Status      *string  `json:"status"`
	Priority    *string  `json:"priority"`
	DueDate     *string  `json:"dueDate"`
	Tags        []string `json:"tags"`
}

// respondError переводит типизированные ошибки ядра в HTTP-статусы
func respondError(c *gin.Context, err error, fallback string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation failed",
			"errors":  []gin.H{{"field": validationErr.Field, "message": validationErr.Message}},
		})
	case errors.Is(err, repository.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
	}
}

func taskIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// Неверный формат ID неотличим от несуществующей задачи
		c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
		return uuid.Nil, false
	}
	return id, true
}

// List возвращает страницу задач пользователя с учетом фильтров
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.tasks.List(c.Request.Context(), userID, service.ListTasksOptions{
		Page:     page,
		Limit:    limit,
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, err, "Server error while fetching tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":      result.Tasks,
		"pagination": result.Pagination,
	})
}

// Create создает новую задачу
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), userID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(c, err, "Server error while creating task")
		return
	}

	h.stats.InvalidateUser(c.Request.Context(), userID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    task,
	})
}

// GetByID возвращает одну задачу пользователя
func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err, "Server error while fetching task")
		return
	}

	c.JSON(http.StatusOK, task)
}

// Update применяет частичное обновление задачи
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), userID, taskID, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(c, err, "Server error while updating task")
		return
	}

	h.stats.InvalidateUser(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"task":    task,
	})
}

// Delete удаляет задачу пользователя
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	deleted, err := h.tasks.Delete(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err, "Server error while deleting task")
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
		return
	}

	h.stats.InvalidateUser(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// Stats возвращает сводную статистику по задачам пользователя
func (h *TaskHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.stats.Summarize(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Server error while fetching task statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}
