package models

import (
	"time"

	"hvac-backend/internal/quoting"
)

type Client struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	PostalCode    string        `json:"postal_code"`
	IsProspect    bool          `json:"is_prospect"`
	CRMStage      quoting.Stage `json:"crm_stage"`
	Checklists    Checklists    `json:"checklists"`
	WorkflowState WorkflowState `json:"workflow_state"`
	ProspectID    *string       `json:"prospect_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CreateClientRequest represents the request body for creating a client
type CreateClientRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"max=40"`
	Address    string `json:"address" validate:"max=300"`
	City       string `json:"city" validate:"max=120"`
	PostalCode string `json:"postal_code" validate:"max=20"`
}

// UpdateStageRequest moves a client on the CRM board.
type UpdateStageRequest struct {
	Stage quoting.Stage `json:"stage" validate:"required"`
}

// ChecklistItemRequest toggles one checklist item.
type ChecklistItemRequest struct {
	Stage   ChecklistStage `json:"stage" validate:"required"`
	Item    string         `json:"item" validate:"required"`
	Checked bool           `json:"checked"`
}
