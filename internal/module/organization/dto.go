package organization

// UpdateRequest is the payload for organization updates. All fields are
// optional; only the ones present are applied.
type UpdateRequest struct {
	Name                *string   `json:"name" binding:"omitempty,min=1,max=100"`
	MaxUsers            *int      `json:"max_users"`
	MaxProjects         *int      `json:"max_projects"`
	DefaultWorkingHours *float64  `json:"default_working_hours"`
	WeekStartsOn        *int      `json:"week_starts_on"`
	EnabledFeatures     *[]string `json:"enabled_features"`
}
