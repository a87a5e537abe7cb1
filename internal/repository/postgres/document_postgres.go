package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = "id, title, type, category, status, description, storage_path, size, project, extracted_text, created_at"

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Type,
		&d.Category,
		&d.Status,
		&d.Description,
		&d.StoragePath,
		&d.Size,
		&d.Project,
		&d.ExtractedText,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (id, title, type, category, status, description, storage_path, size, project, extracted_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Title,
		doc.Type,
		doc.Category,
		doc.Status,
		doc.Description,
		doc.StoragePath,
		doc.Size,
		doc.Project,
		doc.ExtractedText,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// buildWhere translates the list filters into a parameterized WHERE clause.
// Absent filters contribute nothing; provided filters AND together.
func buildWhere(q repository.ListQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(clause, len(args)))
	}

	if q.Status != "" {
		add("status = $%d", q.Status)
	}
	if q.Type != "" {
		add("type = $%d", q.Type)
	}
	if q.Category != "" {
		add("category = $%d", q.Category)
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
// The count runs against the same WHERE clause before pagination, so a page
// past the end yields empty items with the unchanged total.
func (r *DocumentPostgres) List(ctx context.Context, q repository.ListQuery) (*repository.PageResult[model.Document], error) {
	q.Normalize()
	where, args := buildWhere(q)

	var total int
	qCount := `SELECT COUNT(*) FROM documents` + where
	if err := r.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	qList := fmt.Sprintf(
		"SELECT %s FROM documents%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		documentColumns, where, len(args)+1, len(args)+2,
	)
	rows, err := r.db.QueryContext(ctx, qList, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return repository.NewPageResult(items, total, q.Page, q.Limit), nil
}

// Update applies the non-nil fields of upd to the row and returns the result.
// Returns sql.ErrNoRows when the id matches nothing.
func (r *DocumentPostgres) Update(ctx context.Context, id string, upd repository.DocumentUpdate) (*model.Document, error) {
	if upd.Empty() {
		// Nothing to change; behave as a lookup so callers still get NotFound.
		return r.FindByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Category != nil {
		set("category", *upd.Category)
	}
	if upd.Status != nil {
		set("status", *upd.Status)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.Project != nil {
		set("project", *upd.Project)
	}
	if upd.ExtractedText != nil {
		set("extracted_text", *upd.ExtractedText)
	}

	args = append(args, id)
	q := fmt.Sprintf(
		"UPDATE documents SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), documentColumns,
	)
	return scanDocument(r.db.QueryRowContext(ctx, q, args...))
}

// Delete removes a document by ID. Returns sql.ErrNoRows when no row matched.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
