package repository

import (
	"context"
	"database/sql"
	"errors"
)

var ErrRecordNotFound = errors.New("record not found")

// Document is one stored record: its row id, collection and JSON body.
type Document struct {
	ID       int64
	Resource string
	Data     []byte
}

// RecordRepository stores clinic records of every collection as JSON
// documents in a single table.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// List returns every document of resource in insertion order.
func (r *RecordRepository) List(ctx context.Context, resource string) ([]Document, error) {
	query := `SELECT id, resource, data FROM records WHERE resource = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, resource)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Resource, &d.Data); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}

	return docs, rows.Err()
}

// Get returns one document.
func (r *RecordRepository) Get(ctx context.Context, resource string, id int64) (*Document, error) {
	query := `SELECT id, resource, data FROM records WHERE resource = ? AND id = ?`

	d := &Document{}
	err := r.db.QueryRowContext(ctx, query, resource, id).Scan(&d.ID, &d.Resource, &d.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return d, nil
}

// Exists reports whether resource has a document with id.
func (r *RecordRepository) Exists(ctx context.Context, resource string, id int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE resource = ? AND id = ?`, resource, id).Scan(&n)
	return n > 0, err
}

// Create inserts data and returns the new id.
func (r *RecordRepository) Create(ctx context.Context, resource string, data []byte) (int64, error) {
	result, err := r.db.ExecContext(ctx, `INSERT INTO records (resource, data) VALUES (?, ?)`, resource, string(data))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Update replaces the body of a document. Callers check existence first:
// MySQL reports zero affected rows when the body is unchanged.
func (r *RecordRepository) Update(ctx context.Context, resource string, id int64, data []byte) error {
	query := `UPDATE records SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE resource = ? AND id = ?`

	_, err := r.db.ExecContext(ctx, query, string(data), resource, id)
	return err
}

// Delete removes a document.
func (r *RecordRepository) Delete(ctx context.Context, resource string, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE resource = ? AND id = ?`, resource, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}
