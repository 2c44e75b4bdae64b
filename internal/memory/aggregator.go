// Package memory aggregates the append-only AI memory log. Reads are capped
// and cached; writes are fire-and-forget from the caller's perspective.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lookbackhq/lookback/internal/store"
)

type memoryStore interface {
	InsertMemory(ctx context.Context, ownerID, memoryType, text string, metadata []byte) (store.Memory, error)
	ListMemories(ctx context.Context, ownerID string, limit int) ([]store.Memory, error)
}

// Entry is one memory with its metadata decoded. Metadata is nil when the
// stored blob is empty or does not decode.
type Entry struct {
	ID         int64                  `json:"id"`
	MemoryType string                 `json:"memory_type"`
	Memory     string                 `json:"memory"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Aggregator reads and appends owner-scoped memories. When a redis client is
// configured, recent-memory reads are served from a short-lived cache.
type Aggregator struct {
	store    memoryStore
	redis    *redis.Client
	cacheTTL time.Duration
	logger   *log.Logger
}

func NewAggregator(st memoryStore, rdb *redis.Client, cacheTTL time.Duration) *Aggregator {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Aggregator{
		store:    st,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.New(log.Writer(), "[MEMORY] ", log.LstdFlags),
	}
}

func cacheKey(ownerID string, limit int) string {
	return fmt.Sprintf("memctx:%s:%d", ownerID, limit)
}

// List returns the owner's most recent memories, newest first. The limit is
// capped at 50 by the store layer.
func (a *Aggregator) List(ctx context.Context, ownerID string, limit int) ([]Entry, error) {
	if a.redis != nil {
		if cached, err := a.redis.Get(ctx, cacheKey(ownerID, limit)).Result(); err == nil {
			var entries []Entry
			if json.Unmarshal([]byte(cached), &entries) == nil {
				return entries, nil
			}
		}
	}
	rows, err := a.store.ListMemories(ctx, ownerID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, m := range rows {
		entries = append(entries, Entry{
			ID:         m.ID,
			MemoryType: m.MemoryType,
			Memory:     m.Memory,
			Metadata:   a.decodeMetadata(m),
			CreatedAt:  m.CreatedAt,
		})
	}
	if a.redis != nil {
		if body, err := json.Marshal(entries); err == nil {
			if err := a.redis.Set(ctx, cacheKey(ownerID, limit), body, a.cacheTTL).Err(); err != nil {
				a.logger.Printf("cache write failed for %s: %v", ownerID, err)
			}
		}
	}
	return entries, nil
}

func (a *Aggregator) decodeMetadata(m store.Memory) map[string]interface{} {
	if len(m.Metadata) == 0 {
		return nil
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(m.Metadata, &meta); err != nil {
		a.logger.Printf("metadata for memory %d does not decode: %v", m.ID, err)
		return nil
	}
	return meta
}

// Create appends a memory. Missing owner id, type, or text makes it a no-op
// so orchestration code can call it unconditionally.
func (a *Aggregator) Create(ctx context.Context, ownerID, memoryType, text string, metadata map[string]interface{}) (*Entry, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(memoryType) == "" || strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var blob []byte
	if metadata != nil {
		body, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encoding memory metadata: %w", err)
		}
		blob = body
	}
	row, err := a.store.InsertMemory(ctx, ownerID, memoryType, text, blob)
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx, ownerID)
	return &Entry{
		ID:         row.ID,
		MemoryType: row.MemoryType,
		Memory:     row.Memory,
		Metadata:   a.decodeMetadata(row),
		CreatedAt:  row.CreatedAt,
	}, nil
}

// invalidate drops cached memory lists for the owner after an append.
func (a *Aggregator) invalidate(ctx context.Context, ownerID string) {
	if a.redis == nil {
		return
	}
	pattern := fmt.Sprintf("memctx:%s:*", ownerID)
	keys, err := a.redis.Keys(ctx, pattern).Result()
	if err != nil {
		a.logger.Printf("cache invalidation scan failed for %s: %v", ownerID, err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := a.redis.Del(ctx, keys...).Err(); err != nil {
		a.logger.Printf("cache invalidation failed for %s: %v", ownerID, err)
	}
}
