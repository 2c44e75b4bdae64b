// Package index abstracts the vector index used for semantic retrieval of
// reflections and provides a best-effort indexer that absorbs failures so
// write paths never break because the index is down.
package index

import (
	"context"
	"strconv"
	"strings"
)

// Record is one indexed document.
type Record struct {
	ID       string
	OwnerID  string
	Vector   []float32
	Metadata map[string]interface{}
}

// Match is one query hit, ranked by the index itself.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]interface{}
}

// Index is the vector index contract. Query is always owner-scoped.
type Index interface {
	Upsert(ctx context.Context, rec Record) error
	Query(ctx context.Context, ownerID string, vector []float32, topK int) ([]Match, error)
	DeleteByID(ctx context.Context, id string) error
}

const reflectionKeyPrefix = "reflection:"

// ReflectionKey builds the index document id for a reflection.
func ReflectionKey(id int64) string {
	return reflectionKeyPrefix + strconv.FormatInt(id, 10)
}

// ReflectionIDFromKey reverses ReflectionKey.
func ReflectionIDFromKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, reflectionKeyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// snippet keeps the first n characters. Counting runes, not bytes, so
// multi-byte text is never cut mid-sequence.
func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
