package handler_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/google/uuid"

	"taskflow/internal/model"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockUserStore) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	users := args.Get(0)
	if users == nil {
		return nil, args.Error(1)
	}
	return users.([]model.User), args.Error(1)
}

func (m *MockUserStore) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) SaveProfile(ctx context.Context, profile *model.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockUserStore) AssignRole(ctx context.Context, userID uuid.UUID, roleID uuid.UUID) error {
	args := m.Called(ctx, userID, roleID)
	return args.Error(0)
}

type MockRedeemer struct {
	mock.Mock
}

func (m *MockRedeemer) Redeem(ctx context.Context, sessionID string, userID uuid.UUID) (*model.Team, error) {
	args := m.Called(ctx, sessionID, userID)
	team := args.Get(0)
	if team == nil {
		return nil, args.Error(1)
	}
	return team.(*model.Team), args.Error(1)
}

type MockDenylist struct {
	mock.Mock
}

func (m *MockDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	args := m.Called(ctx, jti, expiresAt)
	return args.Error(0)
}

func (m *MockDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

type MockResetTokens struct {
	mock.Mock
}

func (m *MockResetTokens) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockResetTokens) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(to, name, resetURL string) {
	m.Called(to, name, resetURL)
}

func (m *MockMailer) SendTeamInvite(to, inviterName, teamName, joinURL string) {
	m.Called(to, inviterName, teamName, joinURL)
}

type MockTeamStore struct {
	mock.Mock
}

func (m *MockTeamStore) Create(ctx context.Context, team *model.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	args := m.Called(ctx, id)
	team := args.Get(0)
	if team == nil {
		return nil, args.Error(1)
	}
	return team.(*model.Team), args.Error(1)
}

func (m *MockTeamStore) GetByInviteCode(ctx context.Context, code string) (*model.Team, error) {
	args := m.Called(ctx, code)
	team := args.Get(0)
	if team == nil {
		return nil, args.Error(1)
	}
	return team.(*model.Team), args.Error(1)
}

func (m *MockTeamStore) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, teamID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamStore) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	args := m.Called(ctx, teamID, userID)
	return args.Error(0)
}

func (m *MockTeamStore) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	args := m.Called(ctx, teamID, userID)
	return args.Error(0)
}

func (m *MockTeamStore) VisibleTeams(ctx context.Context, userID uuid.UUID) ([]model.Team, error) {
	args := m.Called(ctx, userID)
	teams := args.Get(0)
	if teams == nil {
		return nil, args.Error(1)
	}
	return teams.([]model.Team), args.Error(1)
}

func (m *MockTeamStore) VisibleTeamIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	ids := args.Get(0)
	if ids == nil {
		return nil, args.Error(1)
	}
	return ids.([]uuid.UUID), args.Error(1)
}

func (m *MockTeamStore) Update(ctx context.Context, team *model.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTeamStore) MemberCount(ctx context.Context, teamID uuid.UUID) (int64, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(int64), args.Error(1)
}

type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) Create(ctx context.Context, msg *model.TeamMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageStore) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.TeamMessage, error) {
	args := m.Called(ctx, teamID)
	messages := args.Get(0)
	if messages == nil {
		return nil, args.Error(1)
	}
	return messages.([]model.TeamMessage), args.Error(1)
}

type MockPendingStore struct {
	mock.Mock
}

func (m *MockPendingStore) Set(ctx context.Context, sessionID, code string) error {
	args := m.Called(ctx, sessionID, code)
	return args.Error(0)
}

type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}

func (m *MockTaskStore) ListVisible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, userID, teamIDs)
	tasks := args.Get(0)
	if tasks == nil {
		return nil, args.Error(1)
	}
	return tasks.([]model.Task), args.Error(1)
}

func (m *MockTaskStore) ListDueOn(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID, day time.Time) ([]model.Task, error) {
	args := m.Called(ctx, userID, teamIDs, day)
	tasks := args.Get(0)
	if tasks == nil {
		return nil, args.Error(1)
	}
	return tasks.([]model.Task), args.Error(1)
}

func (m *MockTaskStore) ListOverdue(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID, today time.Time) ([]model.Task, error) {
	args := m.Called(ctx, userID, teamIDs, today)
	tasks := args.Get(0)
	if tasks == nil {
		return nil, args.Error(1)
	}
	return tasks.([]model.Task), args.Error(1)
}

func (m *MockTaskStore) ListCompleted(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, userID, teamIDs)
	tasks := args.Get(0)
	if tasks == nil {
		return nil, args.Error(1)
	}
	return tasks.([]model.Task), args.Error(1)
}

func (m *MockTaskStore) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, teamID)
	tasks := args.Get(0)
	if tasks == nil {
		return nil, args.Error(1)
	}
	return tasks.([]model.Task), args.Error(1)
}

func (m *MockTaskStore) Update(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskStore) SetCompletion(ctx context.Context, id uuid.UUID, completed bool, now time.Time) (*model.Task, error) {
	args := m.Called(ctx, id, completed, now)
	task := args.Get(0)
	if task == nil {
		return nil, args.Error(1)
	}
	return task.(*model.Task), args.Error(1)
}
