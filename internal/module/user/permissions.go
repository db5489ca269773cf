package user

// PermissionSet is the full set of per-user capability flags. It is a pure
// function of Role (see PermissionsForRole) and is recomputed at the boundary
// whenever role is read or changed; it is never persisted or edited
// field-by-field by clients.
type PermissionSet struct {
	// Project permissions
	CanCreateProjects    bool `json:"can_create_projects"`
	CanEditProjects      bool `json:"can_edit_projects"`
	CanDeleteProjects    bool `json:"can_delete_projects"`
	CanArchiveProjects   bool `json:"can_archive_projects"`
	CanViewAllProjects   bool `json:"can_view_all_projects"`
	CanManageAllProjects bool `json:"can_manage_all_projects"`

	// Task permissions
	CanCreateTasks bool `json:"can_create_tasks"`
	CanEditTasks   bool `json:"can_edit_tasks"`
	CanDeleteTasks bool `json:"can_delete_tasks"`
	CanAssignTasks bool `json:"can_assign_tasks"`

	// Time tracking permissions
	CanTrackTime          bool `json:"can_track_time"`
	CanEditOwnTimeEntries bool `json:"can_edit_own_time_entries"`
	CanViewAllTimeEntries bool `json:"can_view_all_time_entries"`

	// Team permissions
	CanCreateTeams       bool `json:"can_create_teams"`
	CanManageTeams       bool `json:"can_manage_teams"`
	CanInviteMembers     bool `json:"can_invite_members"`
	CanRemoveMembers     bool `json:"can_remove_members"`
	CanChangeMemberRoles bool `json:"can_change_member_roles"`

	// Reporting and administration
	CanViewAllReports     bool `json:"can_view_all_reports"`
	CanManageOrganization bool `json:"can_manage_organization"`
}

// PermissionsForRole derives the permission set for a role. This is the
// single source of truth for role capabilities; no permission flag is ever
// written independently of it.
func PermissionsForRole(role Role) PermissionSet {
	switch role {
	case RoleAdmin:
		return PermissionSet{
			CanCreateProjects:    true,
			CanEditProjects:      true,
			CanDeleteProjects:    true,
			CanArchiveProjects:   true,
			CanViewAllProjects:   true,
			CanManageAllProjects: true,

			CanCreateTasks: true,
			CanEditTasks:   true,
			CanDeleteTasks: true,
			CanAssignTasks: true,

			CanTrackTime:          true,
			CanEditOwnTimeEntries: true,
			CanViewAllTimeEntries: true,

			CanCreateTeams:       true,
			CanManageTeams:       true,
			CanInviteMembers:     true,
			CanRemoveMembers:     true,
			CanChangeMemberRoles: true,

			CanViewAllReports:     true,
			CanManageOrganization: true,
		}

	case RoleManager:
		return PermissionSet{
			CanCreateProjects:  true,
			CanEditProjects:    true,
			CanArchiveProjects: true,
			CanViewAllProjects: true,

			CanCreateTasks: true,
			CanEditTasks:   true,
			CanDeleteTasks: true,
			CanAssignTasks: true,

			CanTrackTime:          true,
			CanEditOwnTimeEntries: true,
			CanViewAllTimeEntries: true,

			CanCreateTeams:   true,
			CanManageTeams:   true,
			CanInviteMembers: true,
			CanRemoveMembers: true,

			CanViewAllReports: true,
		}

	case RoleMember:
		return PermissionSet{
			CanCreateTasks: true,
			CanEditTasks:   true,

			CanTrackTime:          true,
			CanEditOwnTimeEntries: true,
		}

	default:
		return PermissionSet{}
	}
}
