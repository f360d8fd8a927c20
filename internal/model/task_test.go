package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskflow/internal/model"
)

func TestTask_IsOverdue(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	yesterday := now.AddDate(0, 0, -1)
	today := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	tomorrow := now.AddDate(0, 0, 1)

	overdue := model.Task{DueDate: &yesterday}
	assert.True(t, overdue.IsOverdue(now))

	// Due today means not yet overdue.
	dueToday := model.Task{DueDate: &today}
	assert.False(t, dueToday.IsOverdue(now))

	future := model.Task{DueDate: &tomorrow}
	assert.False(t, future.IsOverdue(now))

	completed := model.Task{DueDate: &yesterday, IsCompleted: true}
	assert.False(t, completed.IsOverdue(now))

	noDue := model.Task{}
	assert.False(t, noDue.IsOverdue(now))
}

func TestTask_CompleteAndReopen(t *testing.T) {
	now := time.Now()
	task := model.Task{Status: model.StatusProgress}

	task.Complete(now)
	assert.True(t, task.IsCompleted)
	assert.Equal(t, model.StatusDone, task.Status)
	assert.NotNil(t, task.CompletedAt)
	assert.Equal(t, now, *task.CompletedAt)

	task.Reopen()
	assert.False(t, task.IsCompleted)
	assert.Equal(t, model.StatusTodo, task.Status)
	assert.Nil(t, task.CompletedAt)
}

func TestTask_PriorityLevel(t *testing.T) {
	assert.Equal(t, 4, (&model.Task{Priority: model.PriorityUrgent}).PriorityLevel())
	assert.Equal(t, 3, (&model.Task{Priority: model.PriorityHigh}).PriorityLevel())
	assert.Equal(t, 2, (&model.Task{Priority: model.PriorityMedium}).PriorityLevel())
	assert.Equal(t, 1, (&model.Task{Priority: model.PriorityLow}).PriorityLevel())
	assert.Equal(t, 1, (&model.Task{Priority: ""}).PriorityLevel())
}

func TestValidStatusAndPriority(t *testing.T) {
	assert.True(t, model.ValidStatus(model.StatusTodo))
	assert.True(t, model.ValidStatus(model.StatusReview))
	assert.False(t, model.ValidStatus("archived"))

	assert.True(t, model.ValidPriority(model.PriorityUrgent))
	assert.False(t, model.ValidPriority("critical"))
}
