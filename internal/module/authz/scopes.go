package authz

import (
	"gorm.io/gorm"

	"github.com/worklens/server/internal/module/user"
)

// GORM scopes rendering the engine's rules as SQL predicates. List
// endpoints must filter in the database with these so pagination stays
// correct; post-filtering a page in memory would silently drop rows.

// ProjectVisibility scopes a projects query to what the actor may see:
// always the actor's tenant, and unless the actor holds blanket view,
// only owned or member projects.
func ProjectVisibility(actor *user.Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("projects.organization_id = ?", actor.OrganizationID)
		if actor.Permissions.CanViewAllProjects {
			return db
		}
		return db.Where(
			"projects.owner_id = ? OR projects.id IN (SELECT project_id FROM project_members WHERE user_id = ?)",
			actor.UserID, actor.UserID,
		)
	}
}

// EntryVisibility scopes a time_entries query: the actor's tenant, and
// unless the actor holds blanket time visibility, only their own entries.
func EntryVisibility(actor *user.Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("time_entries.organization_id = ?", actor.OrganizationID)
		if actor.Permissions.CanViewAllTimeEntries {
			return db
		}
		return db.Where("time_entries.user_id = ?", actor.UserID)
	}
}

// TenantOnly scopes any query carrying an organization_id column to the
// actor's tenant.
func TenantOnly(table string, actor *user.Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".organization_id = ?", actor.OrganizationID)
	}
}
