package store

import (
	"context"
	"fmt"
	"time"
)

// Memory is an append-only note derived from past analyses. Rows are never
// updated or deleted; retrieval is newest-first and always capped.
type Memory struct {
	ID         int64     `json:"id"`
	OwnerID    string    `json:"user_id"`
	MemoryType string    `json:"memory_type"`
	Memory     string    `json:"memory"`
	Metadata   []byte    `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const maxMemoryListLimit = 50

func (s *Store) InsertMemory(ctx context.Context, ownerID, memoryType, text string, metadata []byte) (Memory, error) {
	if ownerID == "" || memoryType == "" || text == "" {
		return Memory{}, fmt.Errorf("owner id, memory_type and memory are required")
	}
	var m Memory
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO ai_memories (user_id, memory_type, memory, metadata)
VALUES ($1,$2,$3,$4)
RETURNING id, user_id, memory_type, memory, metadata, created_at
`, ownerID, memoryType, text, nullIfEmptyBytes(metadata)).
		Scan(&m.ID, &m.OwnerID, &m.MemoryType, &m.Memory, &m.Metadata, &m.CreatedAt)
	return m, err
}

func (s *Store) ListMemories(ctx context.Context, ownerID string, limit int) ([]Memory, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > maxMemoryListLimit {
		limit = maxMemoryListLimit
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, user_id, memory_type, memory, metadata, created_at
FROM ai_memories
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Memory
	for rows.Next() {
		var m Memory
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.MemoryType, &m.Memory, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullIfEmptyBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
