package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflow/internal/model"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).Order("name").Find(&roles).Error
	return roles, err
}

// Seed creates the four fixed roles with their capability flags.
// Idempotent: existing roles are left untouched.
func (r *RoleRepository) Seed(ctx context.Context) error {
	defaults := []model.Role{
		{
			Name:           model.RoleAdmin,
			Description:    "Full access to all features",
			CanCreateTasks: true, CanEditTasks: true, CanDeleteTasks: true, CanAssignTasks: true,
			CanCreateProjects: true, CanEditProjects: true, CanDeleteProjects: true,
			CanManageTeam: true, CanInviteMembers: true, CanRemoveMembers: true,
			CanViewReports: true, CanManageSettings: true,
		},
		{
			Name:           model.RoleManager,
			Description:    "Can manage tasks, projects and team members",
			CanCreateTasks: true, CanEditTasks: true, CanDeleteTasks: true, CanAssignTasks: true,
			CanCreateProjects: true, CanEditProjects: true,
			CanManageTeam: true, CanInviteMembers: true,
			CanViewReports: true,
		},
		{
			Name:           model.RoleMember,
			Description:    "Can create and edit own tasks",
			CanCreateTasks: true, CanEditTasks: true,
		},
		{
			Name:           model.RoleViewer,
			Description:    "Read-only access",
			CanViewReports: true,
		},
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, role := range defaults {
			var existing model.Role
			err := tx.Where("name = ?", role.Name).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
