package store

import (
	"context"
	"database/sql"
)

// Tag is a shared label that can be attached to reflections.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateTag(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, `INSERT INTO tags (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	return id, err
}

func (s *Store) GetTag(ctx context.Context, id int64) (Tag, bool, error) {
	var t Tag
	err := s.DB.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE id=$1`, id).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return Tag{}, false, nil
	}
	if err != nil {
		return Tag{}, false, err
	}
	return t, true, nil
}

// TagsForReflection lists the tags attached to a reflection, name ascending.
func (s *Store) TagsForReflection(ctx context.Context, reflectionID int64) ([]Tag, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT t.id, t.name
FROM reflection_tags rt
JOIN tags t ON t.id = rt.tag_id
WHERE rt.reflection_id = $1
ORDER BY t.name ASC
`, reflectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AttachTag links a tag to a reflection; attaching twice is a no-op.
func (s *Store) AttachTag(ctx context.Context, reflectionID, tagID int64) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO reflection_tags (reflection_id, tag_id)
VALUES ($1,$2)
ON CONFLICT DO NOTHING
`, reflectionID, tagID)
	return err
}

func (s *Store) DetachTag(ctx context.Context, reflectionID, tagID int64) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM reflection_tags WHERE reflection_id=$1 AND tag_id=$2`, reflectionID, tagID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
