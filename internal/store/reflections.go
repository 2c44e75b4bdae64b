package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Reflection is a single journal entry. Identity is immutable; content stays
// mutable until the row is soft-deleted. Every read and write is scoped by the
// owning user id.
type Reflection struct {
	ID             int64      `json:"id"`
	OwnerID        string     `json:"user_id"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	ReflectionDate time.Time  `json:"reflection_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

const reflectionColumns = `id, user_id, title, content, reflection_date, created_at, updated_at, deleted_at`

func scanReflection(row interface{ Scan(...interface{}) error }) (Reflection, error) {
	var r Reflection
	err := row.Scan(&r.ID, &r.OwnerID, &r.Title, &r.Content, &r.ReflectionDate, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt)
	return r, err
}

func (s *Store) CreateReflection(ctx context.Context, ownerID, title, content string, date time.Time) (int64, error) {
	if ownerID == "" {
		return 0, fmt.Errorf("owner id required")
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	var id int64
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO reflections (user_id, title, content, reflection_date)
VALUES ($1,$2,$3,$4)
RETURNING id
`, ownerID, title, content, date).Scan(&id)
	return id, err
}

// GetReflection returns the owner's reflection by id. Soft-deleted rows are
// treated as absent.
func (s *Store) GetReflection(ctx context.Context, ownerID string, id int64) (Reflection, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT `+reflectionColumns+`
FROM reflections
WHERE id=$1 AND user_id=$2 AND deleted_at IS NULL
`, id, ownerID)
	r, err := scanReflection(row)
	if err == sql.ErrNoRows {
		return Reflection{}, false, nil
	}
	if err != nil {
		return Reflection{}, false, err
	}
	return r, true, nil
}

func (s *Store) ListReflections(ctx context.Context, ownerID string) ([]Reflection, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT `+reflectionColumns+`
FROM reflections
WHERE user_id=$1 AND deleted_at IS NULL
ORDER BY reflection_date DESC
`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Reflection
	for rows.Next() {
		r, err := scanReflection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetReflectionsByIDs resolves a batch of ids for one owner, skipping rows
// that no longer exist or were soft-deleted.
func (s *Store) GetReflectionsByIDs(ctx context.Context, ownerID string, ids []int64) ([]Reflection, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT `+reflectionColumns+`
FROM reflections
WHERE user_id=$1 AND deleted_at IS NULL AND id = ANY($2)
`, ownerID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Reflection
	for rows.Next() {
		r, err := scanReflection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchReflectionsLike performs the lexical fallback: substring match on
// title or content, most recently updated first.
func (s *Store) SearchReflectionsLike(ctx context.Context, ownerID, query string, limit int) ([]Reflection, error) {
	if limit <= 0 {
		limit = 6
	}
	pattern := "%" + query + "%"
	rows, err := s.DB.QueryContext(ctx, `
SELECT `+reflectionColumns+`
FROM reflections
WHERE user_id=$1 AND deleted_at IS NULL AND (title ILIKE $2 OR content ILIKE $2)
ORDER BY updated_at DESC
LIMIT $3
`, ownerID, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Reflection
	for rows.Next() {
		r, err := scanReflection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateReflection(ctx context.Context, ownerID string, id int64, title, content string, date time.Time) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
UPDATE reflections
SET title=$1, content=$2, reflection_date=$3, updated_at=NOW()
WHERE id=$4 AND user_id=$5 AND deleted_at IS NULL
`, title, content, date, id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) SoftDeleteReflection(ctx context.Context, ownerID string, id int64) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
UPDATE reflections
SET deleted_at=NOW()
WHERE id=$1 AND user_id=$2 AND deleted_at IS NULL
`, id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
