package model

import "time"

// Dataset is a catalog entry together with its observed schema metadata.
type Dataset struct {
	ID          string            `json:"id"`
	URN         string            `json:"urn"`
	Platform    string            `json:"platform"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Schema      *SchemaDefinition `json:"schema,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CreatedBy   string            `json:"created_by,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
