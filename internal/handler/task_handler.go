package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/model"
	"taskflow/internal/permission"
	"taskflow/internal/repository"
)

type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListVisible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID) ([]model.Task, error)
	ListDueOn(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID, day time.Time) ([]model.Task, error)
	ListOverdue(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID, today time.Time) ([]model.Task, error)
	ListCompleted(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID) ([]model.Task, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetCompletion(ctx context.Context, id uuid.UUID, completed bool, now time.Time) (*model.Task, error)
}

type TaskHandler struct {
	tasks TaskStore
	teams TeamStore
	users UserStore
	now   func() time.Time
}

func NewTaskHandler(tasks TaskStore, teams TeamStore, users UserStore) *TaskHandler {
	return &TaskHandler{tasks: tasks, teams: teams, users: users, now: time.Now}
}

type CreateTaskRequest struct {
	Title         string  `json:"title" binding:"required"`
	Description   string  `json:"description"`
	TeamID        *string `json:"team_id"`
	ResponsibleID *string `json:"responsible_id"`
	CategoryID    *string `json:"category_id"`
	Status        string  `json:"status"`
	Priority      string  `json:"priority"`
	DueDate       *string `json:"due_date"`
}

type TaskResponse struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	TeamID        *string       `json:"team_id"`
	ResponsibleID string        `json:"responsible_id"`
	Responsible   *userResponse `json:"responsible,omitempty"`
	CreatedBy     string        `json:"created_by"`
	CategoryID    *string       `json:"category_id"`
	Status        string        `json:"status"`
	Priority      string        `json:"priority"`
	PriorityLevel int           `json:"priority_level"`
	DueDate       *string       `json:"due_date"`
	IsCompleted   bool          `json:"is_completed"`
	IsOverdue     bool          `json:"is_overdue"`
	CompletedAt   *string       `json:"completed_at"`
	CreatedAt     string        `json:"created_at"`
}

func newTaskResponse(t *model.Task, now time.Time) TaskResponse {
	resp := TaskResponse{
		ID:            t.ID.String(),
		Title:         t.Title,
		Description:   t.Description,
		ResponsibleID: t.ResponsibleID.String(),
		CreatedBy:     t.CreatedBy.String(),
		Status:        t.Status,
		Priority:      t.Priority,
		PriorityLevel: t.PriorityLevel(),
		IsCompleted:   t.IsCompleted,
		IsOverdue:     t.IsOverdue(now),
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
	if t.TeamID != nil {
		s := t.TeamID.String()
		resp.TeamID = &s
	}
	if t.CategoryID != nil {
		s := t.CategoryID.String()
		resp.CategoryID = &s
	}
	if t.DueDate != nil {
		s := t.DueDate.Format("2006-01-02")
		resp.DueDate = &s
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	if t.Responsible.ID != uuid.Nil {
		ur := newUserResponse(&t.Responsible)
		resp.Responsible = &ur
	}
	return resp
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseDueDate accepts date-only values; time portions are not stored.
func parseDueDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// checkAssignment enforces the assignment invariants. Personal tasks
// are assigned to their creator; team tasks need creator and assignee
// in the team. Superusers skip both.
func (h *TaskHandler) checkAssignment(c *gin.Context, user *model.User, teamID *uuid.UUID, responsibleID uuid.UUID) bool {
	if user.IsSuperuser {
		return true
	}
	if teamID == nil {
		if responsibleID != user.ID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Personal tasks can only be assigned to yourself"})
			return false
		}
		return true
	}

	team, err := h.teams.GetByID(c.Request.Context(), *teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		return false
	}
	if team == nil || !team.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		return false
	}
	isMember, err := h.teams.IsMember(c.Request.Context(), *teamID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return false
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this team"})
		return false
	}
	if responsibleID != user.ID {
		assigneeIn, err := h.teams.IsMember(c.Request.Context(), *teamID, responsibleID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
			return false
		}
		if !assigneeIn {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Assignee is not a member of this team"})
			return false
		}
	}
	return true
}

// Create makes a new task.
// @Summary Create a task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !user.IsSuperuser && !permission.Resolve(user).CanCreateTasks {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to create tasks"})
		return
	}

	teamID, err := parseOptionalUUID(req.TeamID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid team id"})
		return
	}
	categoryID, err := parseOptionalUUID(req.CategoryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
		return
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid due date, expected YYYY-MM-DD"})
		return
	}

	responsibleID := user.ID
	if req.ResponsibleID != nil && *req.ResponsibleID != "" {
		id, err := uuid.Parse(*req.ResponsibleID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid responsible id"})
			return
		}
		responsibleID = id
	}

	status := req.Status
	if status == "" {
		status = model.StatusTodo
	}
	if !model.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}

	if !h.checkAssignment(c, user, teamID, responsibleID) {
		return
	}

	task := &model.Task{
		Title:         req.Title,
		Description:   req.Description,
		TeamID:        teamID,
		ResponsibleID: responsibleID,
		CreatedBy:     user.ID,
		CategoryID:    categoryID,
		Status:        status,
		Priority:      priority,
		DueDate:       dueDate,
	}
	if status == model.StatusDone {
		task.Complete(h.now())
	}

	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}
	c.JSON(http.StatusCreated, newTaskResponse(task, h.now()))
}

// List returns tasks visible to the requester. The filter query narrows
// to today's, overdue, or completed tasks.
// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	teamIDs, err := h.teams.VisibleTeamIDs(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve teams"})
		return
	}

	now := h.now()
	var tasks []model.Task
	switch c.Query("filter") {
	case "today":
		tasks, err = h.tasks.ListDueOn(c.Request.Context(), user.ID, teamIDs, now)
	case "overdue":
		tasks, err = h.tasks.ListOverdue(c.Request.Context(), user.ID, teamIDs, now)
	case "completed":
		tasks, err = h.tasks.ListCompleted(c.Request.Context(), user.ID, teamIDs)
	default:
		tasks, err = h.tasks.ListVisible(c.Request.Context(), user.ID, teamIDs)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, len(tasks))
	for i := range tasks {
		response[i] = newTaskResponse(&tasks[i], now)
	}
	c.JSON(http.StatusOK, response)
}

// getVisibleTask loads a task and decides 404 vs 403: unknown ids are
// not found, existing but inaccessible ones are forbidden.
func (h *TaskHandler) getVisibleTask(c *gin.Context, user *model.User, id uuid.UUID) (*model.Task, bool) {
	task, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return nil, false
	}
	if user.IsSuperuser || task.ResponsibleID == user.ID || task.CreatedBy == user.ID {
		return task, true
	}
	if task.TeamID != nil {
		isMember, err := h.teams.IsMember(c.Request.Context(), *task.TeamID, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
			return nil, false
		}
		if isMember {
			return task, true
		}
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this task"})
	return nil, false
}

func (h *TaskHandler) GetByID(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, ok := h.getVisibleTask(c, user, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task, h.now()))
}

type UpdateTaskRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	TeamID        *string `json:"team_id"`
	ResponsibleID *string `json:"responsible_id"`
	CategoryID    *string `json:"category_id"`
	Status        *string `json:"status"`
	Priority      *string `json:"priority"`
	DueDate       *string `json:"due_date"`
}

func (h *TaskHandler) Update(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, ok := h.getVisibleTask(c, user, id)
	if !ok {
		return
	}

	if !user.IsSuperuser && !permission.Resolve(user).CanEditTasks && task.ResponsibleID != user.ID && task.CreatedBy != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to edit this task"})
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		if !model.ValidStatus(*req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		// Status and the completion flag move together.
		if *req.Status == model.StatusDone && !task.IsCompleted {
			task.Complete(h.now())
		} else if *req.Status != model.StatusDone && task.IsCompleted {
			task.Reopen()
			task.Status = *req.Status
		} else {
			task.Status = *req.Status
		}
	}
	if req.Priority != nil {
		if !model.ValidPriority(*req.Priority) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
			return
		}
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		due, err := parseDueDate(req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid due date, expected YYYY-MM-DD"})
			return
		}
		task.DueDate = due
	}
	if req.CategoryID != nil {
		categoryID, err := parseOptionalUUID(req.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
			return
		}
		task.CategoryID = categoryID
	}

	reassigned := false
	if req.TeamID != nil {
		teamID, err := parseOptionalUUID(req.TeamID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid team id"})
			return
		}
		task.TeamID = teamID
		reassigned = true
	}
	if req.ResponsibleID != nil {
		respID, err := uuid.Parse(*req.ResponsibleID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid responsible id"})
			return
		}
		task.ResponsibleID = respID
		reassigned = true
	}
	if reassigned && !h.checkAssignment(c, user, task.TeamID, task.ResponsibleID) {
		return
	}

	if err := h.tasks.Update(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task, h.now()))
}

func (h *TaskHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, ok := h.getVisibleTask(c, user, id)
	if !ok {
		return
	}

	if !user.IsSuperuser && !permission.Resolve(user).CanDeleteTasks && task.CreatedBy != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to delete this task"})
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), task.ID); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// setCompletion runs the complete or reopen transition. Both are
// idempotent.
func (h *TaskHandler) setCompletion(c *gin.Context, completed bool) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, ok := h.getVisibleTask(c, user, id); !ok {
		return
	}

	task, err := h.tasks.SetCompletion(c.Request.Context(), id, completed, h.now())
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task, h.now()))
}

// Complete marks the task done.
// @Summary Complete a task
// @Tags tasks
// @Router /api/v1/tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c *gin.Context) {
	h.setCompletion(c, true)
}

// Reopen reverts a completed task to todo.
// @Summary Reopen a task
// @Tags tasks
// @Router /api/v1/tasks/{id}/reopen [post]
func (h *TaskHandler) Reopen(c *gin.Context) {
	h.setCompletion(c, false)
}
