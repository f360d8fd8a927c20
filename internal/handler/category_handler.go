package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/model"
	"taskflow/internal/permission"
)

type CategoryStore interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Category, error)
	CountTasks(ctx context.Context, categoryID uuid.UUID) (int64, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CategoryHandler struct {
	categories CategoryStore
	users      UserStore
}

func NewCategoryHandler(categories CategoryStore, users UserStore) *CategoryHandler {
	return &CategoryHandler{categories: categories, users: users}
}

type CategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type CategoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	TaskCount int64  `json:"task_count"`
}

func newCategoryResponse(cat *model.Category, taskCount int64) CategoryResponse {
	return CategoryResponse{
		ID:        cat.ID.String(),
		Name:      cat.Name,
		Color:     cat.Color,
		Icon:      cat.Icon,
		TaskCount: taskCount,
	}
}

// Create makes a personal category.
// @Summary Create a category
// @Tags categories
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category name required"})
		return
	}

	category := &model.Category{
		UserID: user.ID,
		Name:   req.Name,
		Color:  req.Color,
		Icon:   req.Icon,
	}
	if category.Color == "" {
		category.Color = "#2563eb"
	}
	if err := h.categories.Create(c.Request.Context(), category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, newCategoryResponse(category, 0))
}

// List returns the requester's categories with task counts.
func (h *CategoryHandler) List(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}

	categories, err := h.categories.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve categories"})
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i := range categories {
		count, err := h.categories.CountTasks(c.Request.Context(), categories[i].ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count tasks"})
			return
		}
		response[i] = newCategoryResponse(&categories[i], count)
	}
	c.JSON(http.StatusOK, response)
}

// getOwnedCategory loads a category the requester may modify.
func (h *CategoryHandler) getOwnedCategory(c *gin.Context, user *model.User, id uuid.UUID) (*model.Category, bool) {
	category, err := h.categories.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve category"})
		return nil, false
	}
	if category == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return nil, false
	}
	if !permission.IsOwnerOrAdmin(user, category) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this category"})
		return nil, false
	}
	return category, true
}

func (h *CategoryHandler) Update(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	category, ok := h.getOwnedCategory(c, user, id)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category name required"})
		return
	}
	category.Name = req.Name
	if req.Color != "" {
		category.Color = req.Color
	}
	category.Icon = req.Icon

	if err := h.categories.Update(c.Request.Context(), category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}

	count, err := h.categories.CountTasks(c.Request.Context(), category.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count tasks"})
		return
	}
	c.JSON(http.StatusOK, newCategoryResponse(category, count))
}

// Delete removes the category; tasks keep existing with the category
// reference cleared by the schema.
func (h *CategoryHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c, h.users)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	category, ok := h.getOwnedCategory(c, user, id)
	if !ok {
		return
	}

	if err := h.categories.Delete(c.Request.Context(), category.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
