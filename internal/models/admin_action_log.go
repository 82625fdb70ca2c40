package models

import "time"

// AdminActionLog records a dashboard action that changed a quote, a report or
// a setting.
type AdminActionLog struct {
	ID          int64     `json:"id"`
	AdminUserID *string   `json:"admin_user_id,omitempty"`
	AdminEmail  string    `json:"admin_email,omitempty"`
	ActionType  string    `json:"action_type"`
	TargetType  string    `json:"target_type"`
	TargetID    string    `json:"target_id"`
	Description string    `json:"description"`
	OldValue    *string   `json:"old_value,omitempty"`
	NewValue    *string   `json:"new_value,omitempty"`
	IPAddress   string    `json:"ip_address"`
	CreatedAt   time.Time `json:"created_at"`
}

// Audit target types
const (
	TargetQuote      = "quote"
	TargetTechReport = "tech_report"
	TargetSetting    = "setting"
)

// ActionLogFilter narrows the audit listing.
type ActionLogFilter struct {
	TargetType string
	TargetID   string
	Limit      int
}
