package models

// ActivityLog is a best-effort audit trail entry describing a user action.
type ActivityLog struct {
	Base
	OwnerID      string `gorm:"size:64;not null;index" json:"owner_id"`
	ActivityType string `gorm:"size:50;not null" json:"activity_type"`
	Description  string `json:"description"`
}
