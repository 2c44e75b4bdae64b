package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ReflectionEmbeddingRecord is the stored vector for one reflection, keyed
// "reflection:<id>". The owner id in metadata always equals the source
// reflection's owner; the row is replaced whenever the content changes and
// removed when the reflection is soft-deleted.
type ReflectionEmbeddingRecord struct {
	ID       string
	OwnerID  string
	Vector   []float32
	Metadata map[string]interface{}
}

// ReflectionEmbeddingMatch is a nearest-neighbour hit for a query vector.
type ReflectionEmbeddingMatch struct {
	ID        string
	Distance  float64
	Metadata  map[string]interface{}
	CreatedAt time.Time
}

// UpsertReflectionEmbedding stores or replaces the semantic vector for a reflection.
func (s *Store) UpsertReflectionEmbedding(ctx context.Context, rec ReflectionEmbeddingRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("embedding id required")
	}
	if rec.OwnerID == "" {
		return fmt.Errorf("owner id required")
	}
	if len(rec.Vector) == 0 {
		return fmt.Errorf("embedding vector required")
	}
	vectorLiteral, err := encodeVectorLiteral(rec.Vector)
	if err != nil {
		return err
	}
	meta := rec.Metadata
	if meta == nil {
		meta = map[string]interface{}{}
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO reflection_embeddings (id, user_id, embedding, metadata, created_at)
VALUES ($1,$2,$3::vector,$4,NOW())
ON CONFLICT (id) DO UPDATE SET
  user_id = EXCLUDED.user_id,
  embedding = EXCLUDED.embedding,
  metadata = EXCLUDED.metadata,
  created_at = NOW();
`, rec.ID, rec.OwnerID, vectorLiteral, metaBytes)
	return err
}

// QueryReflectionEmbeddings returns the closest stored vectors for one owner.
// The owner filter is part of the SQL predicate so a cross-owner row can never
// be returned.
func (s *Store) QueryReflectionEmbeddings(ctx context.Context, ownerID string, vector []float32, topK int) ([]ReflectionEmbeddingMatch, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id required")
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector must not be empty")
	}
	if topK <= 0 {
		topK = 6
	}
	vecLiteral, err := encodeVectorLiteral(vector)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, metadata, created_at, embedding <=> $1::vector AS distance
FROM reflection_embeddings
WHERE user_id = $2
ORDER BY embedding <=> $1::vector
LIMIT $3
`, vecLiteral, ownerID, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []ReflectionEmbeddingMatch
	for rows.Next() {
		var (
			res       ReflectionEmbeddingMatch
			metaBytes []byte
		)
		if err := rows.Scan(&res.ID, &metaBytes, &res.CreatedAt, &res.Distance); err != nil {
			return nil, err
		}
		if len(metaBytes) > 0 {
			_ = json.Unmarshal(metaBytes, &res.Metadata)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// DeleteReflectionEmbedding removes a stored vector; deleting an unknown id is
// not an error.
func (s *Store) DeleteReflectionEmbedding(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("embedding id required")
	}
	_, err := s.DB.ExecContext(ctx, `DELETE FROM reflection_embeddings WHERE id=$1`, id)
	return err
}

func encodeVectorLiteral(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("vector must not be empty")
	}
	var builder strings.Builder
	builder.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}
