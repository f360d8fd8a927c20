package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/handler"
	"taskflow/internal/middleware"
	"taskflow/internal/model"
)

func setupAuthTest() (*gin.Engine, *MockUserStore, *MockRedeemer) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret")

	r := gin.New()
	r.Use(middleware.SessionMiddleware())

	users := new(MockUserStore)
	redeemer := new(MockRedeemer)
	denylist := new(MockDenylist)
	resets := new(MockResetTokens)
	mailer := new(MockMailer)
	userHandler := handler.NewUserHandler(users, redeemer, denylist, resets, mailer, "http://localhost:5173")

	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)

	return r, users, redeemer
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	router, users, redeemer := setupAuthTest()

	users.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, nil)
	users.On("FindByUsername", mock.Anything, "tester").Return(nil, nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
	redeemer.On("Redeem", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	// Act
	resp := postJSON(router, "/register", handler.RegisterRequest{
		Email:    "Test@Example.com",
		Username: "tester",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)

	var response handler.AuthResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Access)
	assert.NotEmpty(t, response.Refresh)
	assert.Equal(t, "test@example.com", response.User.Email)
	assert.Nil(t, response.JoinedTeam)

	users.AssertExpectations(t)
	redeemer.AssertExpectations(t)
}

func TestRegister_EmailAlreadyExists(t *testing.T) {
	// Arrange
	router, users, _ := setupAuthTest()

	existing := &model.User{ID: uuid.New(), Email: "existing@example.com"}
	users.On("FindByEmail", mock.Anything, "existing@example.com").Return(existing, nil)

	// Act
	resp := postJSON(router, "/register", handler.RegisterRequest{
		Email:    "existing@example.com",
		Username: "tester",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusConflict, resp.Code)

	var response map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "User with this email already exists", response["error"])
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_RedeemsPendingInvite(t *testing.T) {
	// Arrange
	router, users, redeemer := setupAuthTest()

	team := &model.Team{ID: uuid.New(), Name: "Platform", InviteCode: "code-1"}
	users.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	users.On("FindByUsername", mock.Anything, mock.Anything).Return(nil, nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
	redeemer.On("Redeem", mock.Anything, mock.Anything, mock.Anything).Return(team, nil)

	// Act
	resp := postJSON(router, "/register", handler.RegisterRequest{
		Email:    "new@example.com",
		Username: "newcomer",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)

	var response handler.AuthResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.NotNil(t, response.JoinedTeam)
	assert.Equal(t, "Platform", response.JoinedTeam.Name)
}

func TestLogin_Success(t *testing.T) {
	// Arrange
	router, users, redeemer := setupAuthTest()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		Username:       "tester",
		HashedPassword: string(hash),
		IsActive:       true,
	}
	users.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)
	redeemer.On("Redeem", mock.Anything, mock.Anything, user.ID).Return(nil, nil)

	// Act
	resp := postJSON(router, "/login", handler.LoginRequest{
		Email:    "test@example.com",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.AuthResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Access)
	assert.Nil(t, response.RedirectPath)
}

func TestLogin_WrongPassword(t *testing.T) {
	// Arrange
	router, users, _ := setupAuthTest()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: string(hash),
		IsActive:       true,
	}
	users.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)

	// Act
	resp := postJSON(router, "/login", handler.LoginRequest{
		Email:    "test@example.com",
		Password: "wrong-password",
	})

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var response map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Invalid email or password", response["error"])
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	// Arrange
	router, users, _ := setupAuthTest()

	users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

	// Act
	resp := postJSON(router, "/login", handler.LoginRequest{
		Email:    "ghost@example.com",
		Password: "password123",
	})

	// Assert: indistinguishable from a wrong password.
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var response map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Invalid email or password", response["error"])
}

func TestLogin_DisabledAccount(t *testing.T) {
	// Arrange
	router, users, _ := setupAuthTest()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: string(hash),
		IsActive:       false,
	}
	users.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)

	// Act
	resp := postJSON(router, "/login", handler.LoginRequest{
		Email:    "test@example.com",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var response map[string]string
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Account is disabled", response["error"])
}

func TestLogin_JoinedTeamSetsRedirect(t *testing.T) {
	// Arrange
	router, users, redeemer := setupAuthTest()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: string(hash),
		IsActive:       true,
	}
	team := &model.Team{ID: uuid.New(), Name: "Platform", InviteCode: "code-1"}
	users.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)
	redeemer.On("Redeem", mock.Anything, mock.Anything, user.ID).Return(team, nil)

	// Act
	resp := postJSON(router, "/login", handler.LoginRequest{
		Email:    "test@example.com",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.AuthResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.NotNil(t, response.JoinedTeam)
	assert.NotNil(t, response.RedirectPath)
	assert.Equal(t, "/teams", *response.RedirectPath)
}
