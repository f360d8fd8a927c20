package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/auth"
	"taskflow/internal/middleware"
	"taskflow/internal/model"
	"taskflow/internal/permission"
)

// InviteRedeemer consumes a session's pending invite after auth.
type InviteRedeemer interface {
	Redeem(ctx context.Context, sessionID string, userID uuid.UUID) (*model.Team, error)
}

// TokenDenylist revokes refresh tokens at logout.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ResetTokenStore issues one-shot password reset tokens.
type ResetTokenStore interface {
	Issue(ctx context.Context, userID uuid.UUID) (string, error)
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

// ResetMailSender delivers the password reset link, fire-and-forget.
type ResetMailSender interface {
	SendPasswordReset(to, name, resetURL string)
}

type UserHandler struct {
	users       UserStore
	redeemer    InviteRedeemer
	denylist    TokenDenylist
	resets      ResetTokenStore
	mailer      ResetMailSender
	frontendURL string
}

func NewUserHandler(users UserStore, redeemer InviteRedeemer, denylist TokenDenylist, resets ResetTokenStore, mailer ResetMailSender, frontendURL string) *UserHandler {
	return &UserHandler{
		users:       users,
		redeemer:    redeemer,
		denylist:    denylist,
		resets:      resets,
		mailer:      mailer,
		frontendURL: frontendURL,
	}
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required,min=3"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Access       string       `json:"access"`
	Refresh      string       `json:"refresh"`
	User         userResponse `json:"user"`
	JoinedTeam   *teamBrief   `json:"joined_team"`
	RedirectPath *string      `json:"redirect_path,omitempty"`
}

// redeemPending runs after every successful registration or login. The
// user may have clicked an invite link before having an account; this
// is where that invite lands them in the team.
func (h *UserHandler) redeemPending(c *gin.Context, userID uuid.UUID) *model.Team {
	team, err := h.redeemer.Redeem(c.Request.Context(), middleware.SessionID(c), userID)
	if err != nil {
		// A broken invite must not fail the auth request.
		return nil
	}
	return team
}

func (h *UserHandler) issueTokens(userID uuid.UUID) (access, refresh string, err error) {
	access, err = auth.GenerateAccessToken(userID.String())
	if err != nil {
		return "", "", err
	}
	refresh, _, _, err = auth.GenerateRefreshToken(userID.String())
	return access, refresh, err
}

// Register creates an account and redeems any pending invite.
// @Summary Register a new user
// @Tags auth
// @Router /api/auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	req.Email = strings.ToLower(req.Email)

	existing, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}

	existing, err = h.users.FindByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username is taken"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Hash error"})
		return
	}

	user := &model.User{
		ID:             uuid.New(),
		Email:          req.Email,
		Username:       req.Username,
		HashedPassword: string(hash),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		IsActive:       true,
	}

	if err := h.users.Create(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create failed"})
		return
	}

	joined := h.redeemPending(c, user.ID)

	access, refresh, err := h.issueTokens(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token error"})
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Access:     access,
		Refresh:    refresh,
		User:       newUserResponse(user),
		JoinedTeam: newTeamBrief(joined),
	})
}

// Login authenticates by email and password and redeems any pending
// invite.
// @Summary Log in
// @Tags auth
// @Router /api/auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is disabled"})
		return
	}

	joined := h.redeemPending(c, user.ID)

	access, refresh, err := h.issueTokens(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token error"})
		return
	}

	resp := AuthResponse{
		Access:     access,
		Refresh:    refresh,
		User:       newUserResponse(user),
		JoinedTeam: newTeamBrief(joined),
	}
	if joined != nil {
		path := "/teams"
		resp.RedirectPath = &path
	}
	c.JSON(http.StatusOK, resp)
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Refresh exchanges a valid refresh token for a new access token.
func (h *UserHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token required"})
		return
	}

	userID, jti, _, err := auth.ParseRefreshToken(req.Refresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	revoked, err := h.denylist.IsRevoked(c.Request.Context(), jti)
	if err != nil || revoked {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	access, err := auth.GenerateAccessToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

type logoutRequest struct {
	Refresh string `json:"refresh"`
}

// Logout revokes the presented refresh token. A missing or invalid
// token is ignored, matching the best-effort semantics of the flow.
func (h *UserHandler) Logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	if req.Refresh != "" {
		if _, jti, expiresAt, err := auth.ParseRefreshToken(req.Refresh); err == nil {
			_ = h.denylist.Revoke(c.Request.Context(), jti, expiresAt)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// Me returns the principal with their resolved role and capabilities.
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        newUserResponse(user),
		"role":        gin.H{"name": permission.RoleName(user)},
		"permissions": permission.Resolve(user),
	})
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Avatar    *string `json:"avatar"`
	Phone     *string `json:"phone"`
	Bio       *string `json:"bio"`
}

// UpdateProfile patches the principal's display attributes.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if err := h.users.Update(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed"})
		return
	}

	if user.Profile != nil {
		changed := false
		if req.Avatar != nil {
			user.Profile.Avatar = *req.Avatar
			changed = true
		}
		if req.Phone != nil {
			user.Profile.Phone = *req.Phone
			changed = true
		}
		if req.Bio != nil {
			user.Profile.Bio = *req.Bio
			changed = true
		}
		if changed {
			if err := h.users.SaveProfile(c.Request.Context(), user.Profile); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed"})
				return
			}
		}
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.OldPassword)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"old_password": "Wrong password"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Hash error"})
		return
	}
	user.HashedPassword = string(hash)
	if err := h.users.Update(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

type resetRequestRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordResetRequest mails a reset link. The response never reveals
// whether the email exists.
func (h *UserHandler) PasswordResetRequest(c *gin.Context) {
	var req resetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err == nil && user != nil {
		if token, err := h.resets.Issue(c.Request.Context(), user.ID); err == nil {
			resetURL := fmt.Sprintf("%s/reset-password/%s", h.frontendURL, token)
			go h.mailer.SendPasswordReset(user.Email, user.FirstName, resetURL)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a reset link has been sent"})
}

type resetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

func (h *UserHandler) PasswordResetConfirm(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	userID, err := h.resets.Consume(c.Request.Context(), req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil || user == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reset link"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Hash error"})
		return
	}
	user.HashedPassword = string(hash)
	if err := h.users.Update(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}
