package models

import "time"

// Prospect is a lead captured from the public site. Its contact data is
// copied onto a Client at creation time.
type Prospect struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	PostalCode string    `json:"postal_code"`
	Source     string    `json:"source"`
	Message    string    `json:"message"`
	ClientID   *string   `json:"client_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateProspectRequest represents the public lead form
type CreateProspectRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"max=40"`
	Address    string `json:"address" validate:"max=300"`
	City       string `json:"city" validate:"max=120"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	Source     string `json:"source" validate:"max=60"`
	Message    string `json:"message" validate:"max=4000"`
}

// ProspectWithClient is returned by the lead endpoint.
type ProspectWithClient struct {
	Prospect Prospect `json:"prospect"`
	Client   Client   `json:"client"`
}
