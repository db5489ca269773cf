package organization

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Organization is the top level tenant. Every other record in the system
// hangs off exactly one organization, and no operation may read or write
// across organization boundaries.
type Organization struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Settings  Settings       `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Settings holds tenant-wide defaults, quotas and feature toggles.
// WeekStartsOn uses ISO weekday numbering, 1 = Monday through 7 = Sunday.
type Settings struct {
	MaxUsers            int            `gorm:"default:50" json:"max_users"`
	MaxProjects         int            `gorm:"default:100" json:"max_projects"`
	DefaultWorkingHours float64        `gorm:"default:8" json:"default_working_hours"`
	WeekStartsOn        int            `gorm:"default:1" json:"week_starts_on"`
	EnabledFeatures     pq.StringArray `gorm:"type:text[]" json:"enabled_features"`
}

// FeatureEnabled reports whether a feature toggle is on for the tenant.
func (o *Organization) FeatureEnabled(name string) bool {
	for _, f := range o.Settings.EnabledFeatures {
		if f == name {
			return true
		}
	}
	return false
}

// TableName specifies the table name for GORM.
func (Organization) TableName() string {
	return "organizations"
}
