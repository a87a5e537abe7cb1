package repository

import (
	"context"

	"docvault/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record.
	// The caller should provide required fields (e.g., ID, CreatedAt) according to the database schema defaults.
	// Returns the stored document (may include values set by the DB).
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID. Missing rows surface sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns a page of documents matching the query filters and the
	// total row count computed before pagination.
	List(ctx context.Context, q ListQuery) (*PageResult[model.Document], error)

	// Update applies the provided fields to an existing row and returns the
	// updated record. A missing row surfaces sql.ErrNoRows.
	Update(ctx context.Context, id string, upd DocumentUpdate) (*model.Document, error)

	// Delete removes a document by ID. A missing row surfaces sql.ErrNoRows
	// so callers can distinguish "not found" from a storage failure.
	Delete(ctx context.Context, id string) error
}

// DocumentUpdate holds the optional fields of a partial document update.
// Nil fields are left untouched.
type DocumentUpdate struct {
	Title         *string       `json:"title,omitempty"`
	Category      *string       `json:"category,omitempty"`
	Status        *model.Status `json:"status,omitempty"`
	Description   *string       `json:"description,omitempty"`
	Project       *string       `json:"project,omitempty"`
	ExtractedText *string       `json:"extracted_text,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (u DocumentUpdate) Empty() bool {
	return u.Title == nil && u.Category == nil && u.Status == nil &&
		u.Description == nil && u.Project == nil && u.ExtractedText == nil
}
