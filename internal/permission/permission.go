package permission

import (
	"github.com/google/uuid"

	"taskflow/internal/model"
)

// Capabilities is the fixed capability record carried by each role.
// Predicates read named fields instead of looking flags up by string,
// so the capability set is checked at compile time.
type Capabilities struct {
	CanCreateTasks bool `json:"can_create_tasks"`
	CanEditTasks   bool `json:"can_edit_tasks"`
	CanDeleteTasks bool `json:"can_delete_tasks"`
	CanAssignTasks bool `json:"can_assign_tasks"`

	CanCreateProjects bool `json:"can_create_projects"`
	CanEditProjects   bool `json:"can_edit_projects"`
	CanDeleteProjects bool `json:"can_delete_projects"`

	CanManageTeam    bool `json:"can_manage_team"`
	CanInviteMembers bool `json:"can_invite_members"`
	CanRemoveMembers bool `json:"can_remove_members"`

	CanViewReports    bool `json:"can_view_reports"`
	CanManageSettings bool `json:"can_manage_settings"`
}

// Default is the implicit capability set for users whose profile has no
// role assigned: they can work with their own tasks and nothing else.
func Default() Capabilities {
	return Capabilities{
		CanCreateTasks: true,
		CanEditTasks:   true,
	}
}

// FromRole maps a stored role row onto a capability record.
func FromRole(r *model.Role) Capabilities {
	if r == nil {
		return Default()
	}
	return Capabilities{
		CanCreateTasks:    r.CanCreateTasks,
		CanEditTasks:      r.CanEditTasks,
		CanDeleteTasks:    r.CanDeleteTasks,
		CanAssignTasks:    r.CanAssignTasks,
		CanCreateProjects: r.CanCreateProjects,
		CanEditProjects:   r.CanEditProjects,
		CanDeleteProjects: r.CanDeleteProjects,
		CanManageTeam:     r.CanManageTeam,
		CanInviteMembers:  r.CanInviteMembers,
		CanRemoveMembers:  r.CanRemoveMembers,
		CanViewReports:    r.CanViewReports,
		CanManageSettings: r.CanManageSettings,
	}
}

// Resolve returns the effective capabilities of a user. Superusers get
// everything.
func Resolve(u *model.User) Capabilities {
	if u == nil {
		return Capabilities{}
	}
	if u.IsSuperuser {
		return Capabilities{
			CanCreateTasks: true, CanEditTasks: true, CanDeleteTasks: true, CanAssignTasks: true,
			CanCreateProjects: true, CanEditProjects: true, CanDeleteProjects: true,
			CanManageTeam: true, CanInviteMembers: true, CanRemoveMembers: true,
			CanViewReports: true, CanManageSettings: true,
		}
	}
	if u.Profile == nil || u.Profile.Role == nil {
		return Default()
	}
	return FromRole(u.Profile.Role)
}

// RoleName returns the user's effective role name ("member" when no
// role is assigned).
func RoleName(u *model.User) string {
	if u == nil {
		return ""
	}
	if u.Profile == nil {
		return model.RoleMember
	}
	return u.Profile.RoleName()
}

// IsAdmin reports whether the user is a superuser or holds the admin role.
func IsAdmin(u *model.User) bool {
	if u == nil {
		return false
	}
	return u.IsSuperuser || RoleName(u) == model.RoleAdmin
}

// Owned is implemented by every resource with a single designated
// owner: the task's responsible user, the team's lead, the calendar
// event's or category's user.
type Owned interface {
	OwnedBy() uuid.UUID
}

// IsOwnerOrAdmin allows the resource owner, any admin, and superusers.
func IsOwnerOrAdmin(u *model.User, res Owned) bool {
	if u == nil || res == nil {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	if res.OwnedBy() == u.ID {
		return true
	}
	return RoleName(u) == model.RoleAdmin
}
