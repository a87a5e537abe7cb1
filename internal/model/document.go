package model

import "time"

// Document represents a stored file in the system.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Type          string    `json:"type"`
	Category      string    `json:"category"`
	Status        Status    `json:"status"`
	Description   string    `json:"description"`
	StoragePath   string    `json:"storage_path"`
	Size          int64     `json:"size"`
	Project       *string   `json:"project,omitempty"`
	ExtractedText *string   `json:"extracted_text,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
