// Package search implements semantic retrieval over reflections with a
// lexical fallback. The semantic path is strictly optional: any failure in
// embedding or in the vector index degrades to a substring search instead of
// surfacing an error.
package search

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/lookbackhq/lookback/internal/index"
	"github.com/lookbackhq/lookback/internal/store"
)

// ErrInvalidRequest is returned when both the owner id and the query text
// are missing.
var ErrInvalidRequest = errors.New("owner id or query required")

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type vectorIndex interface {
	Query(ctx context.Context, ownerID string, vector []float32, topK int) ([]index.Match, error)
}

type reflectionRepo interface {
	GetReflectionsByIDs(ctx context.Context, ownerID string, ids []int64) ([]store.Reflection, error)
	SearchReflectionsLike(ctx context.Context, ownerID, query string, limit int) ([]store.Reflection, error)
}

// Result is one ranked match. Score is nil on the lexical path.
type Result struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	ReflectionDate time.Time `json:"reflection_date"`
	Snippet        string    `json:"snippet"`
	Score          *float64  `json:"score"`
}

// Service ranks reflections for an owner against a free-text query.
type Service struct {
	embed       embedder
	idx         vectorIndex
	repo        reflectionRepo
	defaultTopK int
	maxTopK     int
	snippetLen  int
	logger      *log.Logger
}

func NewService(embed embedder, idx vectorIndex, repo reflectionRepo, defaultTopK, maxTopK, snippetLen int) *Service {
	if defaultTopK <= 0 {
		defaultTopK = 6
	}
	if maxTopK <= 0 {
		maxTopK = 12
	}
	if snippetLen <= 0 {
		snippetLen = 400
	}
	return &Service{
		embed:       embed,
		idx:         idx,
		repo:        repo,
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
		snippetLen:  snippetLen,
		logger:      log.New(log.Writer(), "[SEARCH] ", log.LstdFlags),
	}
}

// Search returns up to topK reflections for the owner ranked against the
// query. Semantic ranking when the index cooperates, recency-ordered
// substring matching otherwise. Pure read, no side effects.
func (s *Service) Search(ctx context.Context, ownerID, query string, topK int) ([]Result, error) {
	if strings.TrimSpace(ownerID) == "" && strings.TrimSpace(query) == "" {
		return nil, ErrInvalidRequest
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}
	if topK > s.maxTopK {
		topK = s.maxTopK
	}

	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		s.logger.Printf("embedding unavailable, using lexical fallback: %v", err)
		return s.lexical(ctx, ownerID, query, topK)
	}
	matches, err := s.idx.Query(ctx, ownerID, vec, topK)
	if err != nil {
		s.logger.Printf("index query failed, using lexical fallback: %v", err)
		return s.lexical(ctx, ownerID, query, topK)
	}
	if len(matches) == 0 {
		return s.lexical(ctx, ownerID, query, topK)
	}
	return s.resolve(ctx, ownerID, matches)
}

// resolve maps index matches back to live reflections, preserving the
// index's ranking and dropping anything missing or soft-deleted.
func (s *Service) resolve(ctx context.Context, ownerID string, matches []index.Match) ([]Result, error) {
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		if id, ok := index.ReflectionIDFromKey(m.ID); ok {
			ids = append(ids, id)
		}
	}
	rows, err := s.repo.GetReflectionsByIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]store.Reflection, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		id, ok := index.ReflectionIDFromKey(m.ID)
		if !ok {
			continue
		}
		r, ok := byID[id]
		if !ok {
			continue
		}
		score := m.Score
		results = append(results, Result{
			ID:             r.ID,
			Title:          r.Title,
			ReflectionDate: r.ReflectionDate,
			Snippet:        s.snippet(r.Content),
			Score:          &score,
		})
	}
	return results, nil
}

func (s *Service) lexical(ctx context.Context, ownerID, query string, topK int) ([]Result, error) {
	rows, err := s.repo.SearchReflectionsLike(ctx, ownerID, query, topK)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(rows))
	for _, r := range rows {
		results = append(results, Result{
			ID:             r.ID,
			Title:          r.Title,
			ReflectionDate: r.ReflectionDate,
			Snippet:        s.snippet(r.Content),
			Score:          nil,
		})
	}
	return results, nil
}

func (s *Service) snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= s.snippetLen {
		return content
	}
	return string(runes[:s.snippetLen])
}
