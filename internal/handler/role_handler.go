package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/model"
	"taskflow/internal/permission"
)

type RoleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
	List(ctx context.Context) ([]model.Role, error)
}

// RoleHandler covers the admin surface: user listing and role
// assignment.
type RoleHandler struct {
	roles RoleStore
	users UserStore
}

func NewRoleHandler(roles RoleStore, users UserStore) *RoleHandler {
	return &RoleHandler{roles: roles, users: users}
}

type adminUserResponse struct {
	userResponse
	Role        string `json:"role"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}

// ListUsers returns every account. Admins and team managers only.
// @Summary List users
// @Tags admin
// @Router /api/v1/users [get]
func (h *RoleHandler) ListUsers(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	if !permission.IsAdmin(user) && !permission.Resolve(user).CanManageTeam {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to list users"})
		return
	}

	users, err := h.users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	response := make([]adminUserResponse, len(users))
	for i := range users {
		response[i] = adminUserResponse{
			userResponse: newUserResponse(&users[i]),
			Role:         permission.RoleName(&users[i]),
			IsActive:     users[i].IsActive,
			IsSuperuser:  users[i].IsSuperuser,
		}
	}
	c.JSON(http.StatusOK, response)
}

type roleResponse struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	Capabilities permission.Capabilities `json:"capabilities"`
}

// ListRoles returns the fixed role set with capability flags.
func (h *RoleHandler) ListRoles(c *gin.Context) {
	if _, ok := currentUser(c, h.users); !ok {
		return
	}

	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve roles"})
		return
	}

	response := make([]roleResponse, len(roles))
	for i := range roles {
		response[i] = roleResponse{
			ID:           roles[i].ID.String(),
			Name:         roles[i].Name,
			Description:  roles[i].Description,
			Capabilities: permission.FromRole(&roles[i]),
		}
	}
	c.JSON(http.StatusOK, response)
}

type assignRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// AssignRole rebinds a user's profile to another role by name. Admin
// only.
// @Summary Assign a role to a user
// @Tags admin
// @Router /api/v1/users/{id}/role [put]
func (h *RoleHandler) AssignRole(c *gin.Context) {
	actor, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	if !permission.IsAdmin(actor) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can assign roles"})
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role name required"})
		return
	}

	target, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	role, err := h.roles.GetByName(c.Request.Context(), req.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve role"})
		return
	}
	if role == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	if err := h.users.AssignRole(c.Request.Context(), target.ID, role.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign role"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Role assigned",
		"user_id": target.ID.String(),
		"role":    role.Name,
	})
}
