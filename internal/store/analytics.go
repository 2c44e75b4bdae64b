package store

import (
	"context"
)

// ReflectionCounts summarises how much an owner has written.
type ReflectionCounts struct {
	Total     int `json:"total"`
	ThisWeek  int `json:"this_week"`
	ThisMonth int `json:"this_month"`
}

// TagCount is one entry of an owner's tag frequency table.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *Store) CountReflections(ctx context.Context, ownerID string) (ReflectionCounts, error) {
	var c ReflectionCounts
	err := s.DB.QueryRowContext(ctx, `
SELECT
  COUNT(*),
  COUNT(*) FILTER (WHERE reflection_date >= NOW() - INTERVAL '6 days'),
  COUNT(*) FILTER (WHERE date_trunc('month', reflection_date) = date_trunc('month', NOW()))
FROM reflections
WHERE user_id = $1 AND deleted_at IS NULL
`, ownerID).Scan(&c.Total, &c.ThisWeek, &c.ThisMonth)
	return c, err
}

func (s *Store) TagFrequency(ctx context.Context, ownerID string) ([]TagCount, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT t.name, COUNT(*)
FROM reflection_tags rt
JOIN tags t ON t.id = rt.tag_id
JOIN reflections r ON r.id = rt.reflection_id
WHERE r.user_id = $1 AND r.deleted_at IS NULL
GROUP BY t.name
ORDER BY COUNT(*) DESC, t.name ASC
`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
