package index

import (
	"context"

	"github.com/lookbackhq/lookback/internal/store"
)

// PgVector implements Index on top of the pgvector-backed embeddings table.
type PgVector struct {
	store *store.Store
}

func NewPgVector(s *store.Store) *PgVector {
	return &PgVector{store: s}
}

func (p *PgVector) Upsert(ctx context.Context, rec Record) error {
	return p.store.UpsertReflectionEmbedding(ctx, store.ReflectionEmbeddingRecord{
		ID:       rec.ID,
		OwnerID:  rec.OwnerID,
		Vector:   rec.Vector,
		Metadata: rec.Metadata,
	})
}

func (p *PgVector) Query(ctx context.Context, ownerID string, vector []float32, topK int) ([]Match, error) {
	rows, err := p.store.QueryReflectionEmbeddings(ctx, ownerID, vector, topK)
	if err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(rows))
	for _, r := range rows {
		// Cosine distance to similarity; pgvector orders ascending by distance.
		matches = append(matches, Match{
			ID:       r.ID,
			Score:    1 - r.Distance,
			Metadata: r.Metadata,
		})
	}
	return matches, nil
}

func (p *PgVector) DeleteByID(ctx context.Context, id string) error {
	return p.store.DeleteReflectionEmbedding(ctx, id)
}
