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

type ProjectStore interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	ListByTeams(ctx context.Context, teamIDs []uuid.UUID) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddTask(ctx context.Context, projectID, taskID uuid.UUID) error
	RemoveTask(ctx context.Context, projectID, taskID uuid.UUID) error
}

type ProjectHandler struct {
	projects ProjectStore
	tasks    TaskStore
	teams    TeamStore
	users    UserStore
	now      func() time.Time
}

func NewProjectHandler(projects ProjectStore, tasks TaskStore, teams TeamStore, users UserStore) *ProjectHandler {
	return &ProjectHandler{projects: projects, tasks: tasks, teams: teams, users: users, now: time.Now}
}

type CreateProjectRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	TeamID      string  `json:"team_id" binding:"required"`
	Status      string  `json:"status"`
	Deadline    *string `json:"deadline"`
}

type ProjectResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TeamID      string         `json:"team_id"`
	Status      string         `json:"status"`
	StartDate   *string        `json:"start_date"`
	Deadline    *string        `json:"deadline"`
	Progress    int            `json:"progress"`
	TaskCount   int            `json:"task_count"`
	Tasks       []TaskResponse `json:"tasks,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

func newProjectResponse(p *model.Project, now time.Time, withTasks bool) ProjectResponse {
	resp := ProjectResponse{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		TeamID:      p.TeamID.String(),
		Status:      p.Status,
		Progress:    p.Progress(),
		TaskCount:   len(p.Tasks),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
	if p.StartDate != nil {
		s := p.StartDate.Format(time.RFC3339)
		resp.StartDate = &s
	}
	if p.Deadline != nil {
		s := p.Deadline.Format(time.RFC3339)
		resp.Deadline = &s
	}
	if withTasks {
		resp.Tasks = make([]TaskResponse, len(p.Tasks))
		for i := range p.Tasks {
			resp.Tasks[i] = newTaskResponse(&p.Tasks[i], now)
		}
	}
	return resp
}

// requireTeamMember checks active team plus membership for project
// operations.
func (h *ProjectHandler) requireTeamMember(c *gin.Context, user *model.User, teamID uuid.UUID) bool {
	team, err := h.teams.GetByID(c.Request.Context(), teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve team"})
		return false
	}
	if team == nil || !team.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		return false
	}
	if user.IsSuperuser {
		return true
	}
	isMember, err := h.teams.IsMember(c.Request.Context(), teamID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return false
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this team"})
		return false
	}
	return true
}

// Create makes a new project in a team.
// @Summary Create a project
// @Tags projects
// @Router /api/v1/projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	teamID, err := uuid.Parse(req.TeamID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid team id"})
		return
	}

	if !user.IsSuperuser && !permission.Resolve(user).CanCreateProjects {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to create projects"})
		return
	}
	if !h.requireTeamMember(c, user, teamID) {
		return
	}

	status := req.Status
	if status == "" {
		status = model.ProjectPlanning
	}
	if !model.ValidProjectStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var deadline *time.Time
	if req.Deadline != nil && *req.Deadline != "" {
		d, err := time.Parse(time.RFC3339, *req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline"})
			return
		}
		deadline = &d
	}

	project := &model.Project{
		Title:       req.Title,
		Description: req.Description,
		TeamID:      teamID,
		Status:      status,
		Deadline:    deadline,
	}
	if err := h.projects.Create(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}
	c.JSON(http.StatusCreated, newProjectResponse(project, h.now(), false))
}

// List returns projects of the requester's visible teams.
func (h *ProjectHandler) List(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	teamIDs, err := h.teams.VisibleTeamIDs(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve teams"})
		return
	}
	projects, err := h.projects.ListByTeams(c.Request.Context(), teamIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	now := h.now()
	response := make([]ProjectResponse, len(projects))
	for i := range projects {
		response[i] = newProjectResponse(&projects[i], now, false)
	}
	c.JSON(http.StatusOK, response)
}

// getVisibleProject loads a project and enforces team membership.
func (h *ProjectHandler) getVisibleProject(c *gin.Context, user *model.User, id uuid.UUID) (*model.Project, bool) {
	project, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return nil, false
	}
	if user.IsSuperuser {
		return project, true
	}
	isMember, err := h.teams.IsMember(c.Request.Context(), project.TeamID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return nil, false
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this project"})
		return nil, false
	}
	return project, true
}

func (h *ProjectHandler) GetByID(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	project, ok := h.getVisibleProject(c, user, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newProjectResponse(project, h.now(), true))
}

type UpdateProjectRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Deadline    *string `json:"deadline"`
}

func (h *ProjectHandler) Update(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	project, ok := h.getVisibleProject(c, user, id)
	if !ok {
		return
	}

	if !user.IsSuperuser && !permission.Resolve(user).CanEditProjects {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to edit projects"})
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Title != nil {
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		if !model.ValidProjectStatus(*req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		project.Status = *req.Status
	}
	if req.Deadline != nil {
		if *req.Deadline == "" {
			project.Deadline = nil
		} else {
			d, err := time.Parse(time.RFC3339, *req.Deadline)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline"})
				return
			}
			project.Deadline = &d
		}
	}

	if err := h.projects.Update(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}
	c.JSON(http.StatusOK, newProjectResponse(project, h.now(), false))
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	project, ok := h.getVisibleProject(c, user, id)
	if !ok {
		return
	}

	if !user.IsSuperuser && !permission.Resolve(user).CanDeleteProjects {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to delete projects"})
		return
	}

	if err := h.projects.Delete(c.Request.Context(), project.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

// Start stamps the start date and activates the project. Starting an
// already active project just refreshes the start date.
// @Summary Start a project
// @Tags projects
// @Router /api/v1/projects/{id}/start [post]
func (h *ProjectHandler) Start(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	project, ok := h.getVisibleProject(c, user, id)
	if !ok {
		return
	}

	if !user.IsSuperuser && !permission.Resolve(user).CanEditProjects {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to edit projects"})
		return
	}

	project.Start(h.now())
	if err := h.projects.Update(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start project"})
		return
	}
	c.JSON(http.StatusOK, newProjectResponse(project, h.now(), false))
}

type projectTaskRequest struct {
	TaskID string `json:"task_id" binding:"required"`
}

// AddTask attaches a task to the project. The task must belong to the
// project's team.
func (h *ProjectHandler) AddTask(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	project, ok := h.getVisibleProject(c, user, id)
	if !ok {
		return
	}

	var req projectTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task id required"})
		return
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task id"})
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}
	if task.TeamID == nil || *task.TeamID != project.TeamID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task does not belong to the project's team"})
		return
	}

	if err := h.projects.AddTask(c.Request.Context(), project.ID, task.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task added to project"})
}

func (h *ProjectHandler) RemoveTask(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	project, ok := h.getVisibleProject(c, user, id)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "task_id")
	if !ok {
		return
	}

	if err := h.projects.RemoveTask(c.Request.Context(), project.ID, taskID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task removed from project"})
}
