package db

// ===========================
// TEAM MODELS
// ===========================

// Team is a named group of members. Member entries are stored as given.
type Team struct {
	TeamName     string        `json:"team_name" mapstructure:"team_name" binding:"required"`
	Members      []interface{} `json:"members" mapstructure:"members" binding:"required"`
	CreatedBy    string        `json:"created_by,omitempty" mapstructure:"created_by"`
	CreateDate   string        `json:"create_date,omitempty" mapstructure:"create_date"`
	ModifiedDate string        `json:"modified_date,omitempty" mapstructure:"modified_date"`
}

// TeamResponse adds the storage key
type TeamResponse struct {
	Key string `json:"key"`
	Team
}

// ===========================
// USER MODELS
// ===========================

// User is a user record as written by the external auth system.
type User struct {
	Email          string `json:"email" mapstructure:"email"`
	HashedPassword string `json:"hashed_password" mapstructure:"hashed_password"`
	IsActive       bool   `json:"is_active" mapstructure:"is_active"`
	IsSuperuser    bool   `json:"is_superuser" mapstructure:"is_superuser"`
	IsVerified     bool   `json:"is_verified" mapstructure:"is_verified"`
}

// PublicUser is the credential-free projection of a User
type PublicUser struct {
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	IsVerified  bool   `json:"is_verified"`
}

// ===========================
// SCHEDULE MODELS
// ===========================

// ScheduleFilter selects schedules by their owning dataset or datasource.
type ScheduleFilter struct {
	DatasetID    string `form:"dataset_id"`
	DatasourceID string `form:"datasource_id"`
}

// ===========================
// COMMON
// ===========================

// ListQuery is the sort flag accepted by list endpoints
type ListQuery struct {
	Asc *bool `form:"asc"`
}

// Ascending defaults to true when the flag is absent.
func (q ListQuery) Ascending() bool {
	return q.Asc == nil || *q.Asc
}
