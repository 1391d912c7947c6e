package model_test

import (
	"testing"
	"time"

	"tasktracker/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestApplyStatus_CompletedDerivation(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	task := &model.Task{Status: model.StatusPending}

	// Переход в completed устанавливает производные поля
	task.ApplyStatus(model.StatusCompleted, now)
	assert.True(t, task.Completed)
	assert.NotNil(t, task.CompletedAt)
	assert.Equal(t, now, *task.CompletedAt)

	// Повторное сохранение в completed не перезаписывает CompletedAt
	later := now.Add(time.Hour)
	task.ApplyStatus(model.StatusCompleted, later)
	assert.True(t, task.Completed)
	assert.Equal(t, now, *task.CompletedAt)

	// Выход из completed очищает производные поля
	task.ApplyStatus(model.StatusInProgress, later)
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)

	// Повторный переход в completed устанавливает новое время
	task.ApplyStatus(model.StatusCompleted, later)
	assert.True(t, task.Completed)
	assert.Equal(t, later, *task.CompletedAt)
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	// Без срока задача не может быть просроченной
	task := &model.Task{Status: model.StatusPending}
	assert.False(t, task.IsOverdue(now))

	// Срок в прошлом и статус не completed
	task.DueDate = &yesterday
	assert.True(t, task.IsOverdue(now))

	// Завершенная задача не просрочена
	task.ApplyStatus(model.StatusCompleted, now)
	assert.False(t, task.IsOverdue(now))

	// Срок в будущем
	task = &model.Task{Status: model.StatusPending, DueDate: &tomorrow}
	assert.False(t, task.IsOverdue(now))
}

func TestValidStatusAndPriority(t *testing.T) {
	assert.True(t, model.ValidStatus("pending"))
	assert.True(t, model.ValidStatus("in-progress"))
	assert.True(t, model.ValidStatus("completed"))
	assert.False(t, model.ValidStatus("done"))

	assert.True(t, model.ValidPriority("low"))
	assert.True(t, model.ValidPriority("medium"))
	assert.True(t, model.ValidPriority("high"))
	assert.False(t, model.ValidPriority("urgent"))
}
