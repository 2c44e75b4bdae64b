package index

import (
	"context"
	"log"

	"github.com/lookbackhq/lookback/internal/store"
)

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Indexer keeps the vector index in sync with reflection writes. Every
// operation is best-effort: failures are logged and reported as false,
// never returned as errors, so callers' write paths do not depend on the
// index being reachable.
type Indexer struct {
	embed      embedder
	idx        Index
	snippetLen int
	logger     *log.Logger
}

func NewIndexer(embed embedder, idx Index, snippetLen int) *Indexer {
	if snippetLen <= 0 {
		snippetLen = 400
	}
	return &Indexer{
		embed:      embed,
		idx:        idx,
		snippetLen: snippetLen,
		logger:     log.New(log.Writer(), "[VECTOR] ", log.LstdFlags),
	}
}

// IndexReflection embeds the reflection and upserts it into the index.
func (ix *Indexer) IndexReflection(ctx context.Context, r store.Reflection, tags []string) bool {
	text := r.Title + "\n" + r.Content
	vec, err := ix.embed.Embed(ctx, text)
	if err != nil {
		ix.logger.Printf("embed failed for reflection %d: %v", r.ID, err)
		return false
	}
	if tags == nil {
		tags = []string{}
	}
	rec := Record{
		ID:      ReflectionKey(r.ID),
		OwnerID: r.OwnerID,
		Vector:  vec,
		Metadata: map[string]interface{}{
			"user_id":         r.OwnerID,
			"reflection_id":   r.ID,
			"title":           r.Title,
			"tags":            tags,
			"snippet":         snippet(r.Content, ix.snippetLen),
			"reflection_date": r.ReflectionDate,
		},
	}
	if err := ix.idx.Upsert(ctx, rec); err != nil {
		ix.logger.Printf("upsert failed for reflection %d: %v", r.ID, err)
		return false
	}
	return true
}

// RemoveReflection deletes the reflection's index entry.
func (ix *Indexer) RemoveReflection(ctx context.Context, id int64) bool {
	if err := ix.idx.DeleteByID(ctx, ReflectionKey(id)); err != nil {
		ix.logger.Printf("delete failed for reflection %d: %v", id, err)
		return false
	}
	return true
}
