package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"taskflow/internal/handler"
	"taskflow/internal/middleware"
	"taskflow/internal/model"
)

type MockProjectStore struct {
	mock.Mock
}

func (m *MockProjectStore) Create(ctx context.Context, project *model.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, id)
	project := args.Get(0)
	if project == nil {
		return nil, args.Error(1)
	}
	return project.(*model.Project), args.Error(1)
}

func (m *MockProjectStore) ListByTeams(ctx context.Context, teamIDs []uuid.UUID) ([]model.Project, error) {
	args := m.Called(ctx, teamIDs)
	projects := args.Get(0)
	if projects == nil {
		return nil, args.Error(1)
	}
	return projects.([]model.Project), args.Error(1)
}

func (m *MockProjectStore) Update(ctx context.Context, project *model.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectStore) AddTask(ctx context.Context, projectID, taskID uuid.UUID) error {
	args := m.Called(ctx, projectID, taskID)
	return args.Error(0)
}

func (m *MockProjectStore) RemoveTask(ctx context.Context, projectID, taskID uuid.UUID) error {
	args := m.Called(ctx, projectID, taskID)
	return args.Error(0)
}

type projectTestEnv struct {
	router   *gin.Engine
	projects *MockProjectStore
	tasks    *MockTaskStore
	teams    *MockTeamStore
	users    *MockUserStore
	userID   uuid.UUID
}

func setupProjectTest() *projectTestEnv {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	env := &projectTestEnv{
		router:   r,
		projects: new(MockProjectStore),
		tasks:    new(MockTaskStore),
		teams:    new(MockTeamStore),
		users:    new(MockUserStore),
		userID:   uuid.New(),
	}
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, env.userID)
		c.Next()
	})

	projectHandler := handler.NewProjectHandler(env.projects, env.tasks, env.teams, env.users)
	r.GET("/projects/:id", projectHandler.GetByID)
	r.POST("/projects/:id/start", projectHandler.Start)
	r.POST("/projects/:id/tasks", projectHandler.AddTask)
	return env
}

func (env *projectTestEnv) memberUser() *model.User {
	role := &model.Role{Name: model.RoleManager, CanCreateProjects: true, CanEditProjects: true}
	return &model.User{
		ID:       env.userID,
		Username: "tester",
		IsActive: true,
		Profile:  &model.UserProfile{Role: role},
	}
}

func TestGetProject_ReportsProgress(t *testing.T) {
	// Arrange
	env := setupProjectTest()
	project := &model.Project{
		ID:     uuid.New(),
		Title:  "Launch",
		TeamID: uuid.New(),
		Status: model.ProjectActive,
		Tasks: []model.Task{
			{ID: uuid.New(), IsCompleted: true},
			{ID: uuid.New()},
			{ID: uuid.New()},
		},
	}

	env.users.On("GetByID", mock.Anything, env.userID).Return(env.memberUser(), nil)
	env.projects.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	env.teams.On("IsMember", mock.Anything, project.TeamID, env.userID).Return(true, nil)

	// Act
	resp := do(env.router, "GET", "/projects/"+project.ID.String())

	// Assert: 1 of 3 done truncates to 33.
	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.ProjectResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, 33, response.Progress)
	assert.Equal(t, 3, response.TaskCount)
}

func TestGetProject_NonMemberForbidden(t *testing.T) {
	// Arrange
	env := setupProjectTest()
	project := &model.Project{ID: uuid.New(), Title: "Launch", TeamID: uuid.New()}

	env.users.On("GetByID", mock.Anything, env.userID).Return(env.memberUser(), nil)
	env.projects.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	env.teams.On("IsMember", mock.Anything, project.TeamID, env.userID).Return(false, nil)

	// Act
	resp := do(env.router, "GET", "/projects/"+project.ID.String())

	// Assert
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestStartProject_ActivatesAndStamps(t *testing.T) {
	// Arrange
	env := setupProjectTest()
	project := &model.Project{
		ID:     uuid.New(),
		Title:  "Launch",
		TeamID: uuid.New(),
		Status: model.ProjectPlanning,
	}

	env.users.On("GetByID", mock.Anything, env.userID).Return(env.memberUser(), nil)
	env.projects.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	env.teams.On("IsMember", mock.Anything, project.TeamID, env.userID).Return(true, nil)
	env.projects.On("Update", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
		return p.Status == model.ProjectActive && p.StartDate != nil
	})).Return(nil)

	// Act
	resp := do(env.router, "POST", "/projects/"+project.ID.String()+"/start")

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.ProjectResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, model.ProjectActive, response.Status)
	assert.NotNil(t, response.StartDate)
	env.projects.AssertExpectations(t)
}

func TestAddTaskToProject_RejectsOtherTeamsTask(t *testing.T) {
	// Arrange
	env := setupProjectTest()
	project := &model.Project{ID: uuid.New(), Title: "Launch", TeamID: uuid.New()}
	otherTeam := uuid.New()
	task := &model.Task{ID: uuid.New(), Title: "Deploy", TeamID: &otherTeam}

	env.users.On("GetByID", mock.Anything, env.userID).Return(env.memberUser(), nil)
	env.projects.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	env.teams.On("IsMember", mock.Anything, project.TeamID, env.userID).Return(true, nil)
	env.tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)

	// Act
	body, _ := json.Marshal(map[string]string{"task_id": task.ID.String()})
	req, _ := http.NewRequest("POST", "/projects/"+project.ID.String()+"/tasks", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	env.projects.AssertNotCalled(t, "AddTask", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddTaskToProject_PersonalTaskRejected(t *testing.T) {
	// Arrange
	env := setupProjectTest()
	project := &model.Project{ID: uuid.New(), Title: "Launch", TeamID: uuid.New()}
	task := &model.Task{ID: uuid.New(), Title: "Errand"}

	env.users.On("GetByID", mock.Anything, env.userID).Return(env.memberUser(), nil)
	env.projects.On("GetByID", mock.Anything, project.ID).Return(project, nil)
	env.teams.On("IsMember", mock.Anything, project.TeamID, env.userID).Return(true, nil)
	env.tasks.On("GetByID", mock.Anything, task.ID).Return(task, nil)

	// Act
	body, _ := json.Marshal(map[string]string{"task_id": task.ID.String()})
	req, _ := http.NewRequest("POST", "/projects/"+project.ID.String()+"/tasks", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	env.projects.AssertNotCalled(t, "AddTask", mock.Anything, mock.Anything, mock.Anything)
}
