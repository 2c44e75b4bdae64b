package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lookbackhq/lookback/config"
	"github.com/lookbackhq/lookback/internal/ai"
	"github.com/lookbackhq/lookback/internal/memory"
	"github.com/lookbackhq/lookback/internal/search"
	"github.com/lookbackhq/lookback/internal/store"
)

type searcher interface {
	Search(ctx context.Context, ownerID, query string, topK int) ([]search.Result, error)
}

type chatRepo interface {
	GetReflectionsByIDs(ctx context.Context, ownerID string, ids []int64) ([]store.Reflection, error)
}

// ChatRequest asks a question grounded in the owner's reflections. When
// References is non-empty those reflections are used directly instead of a
// semantic lookup.
type ChatRequest struct {
	OwnerID    string  `json:"user_id"`
	Message    string  `json:"message"`
	References []int64 `json:"references"`
	TopK       int     `json:"top_k"`
}

type ChatReflection struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	ReflectionDate time.Time `json:"reflection_date"`
	Score          *float64  `json:"score"`
}

type ChatMemory struct {
	MemoryType string    `json:"memory_type"`
	Memory     string    `json:"memory"`
	CreatedAt  time.Time `json:"created_at"`
}

type ChatResponse struct {
	Answer      string           `json:"answer"`
	Reflections []ChatReflection `json:"reflections"`
	Memories    []ChatMemory     `json:"memories"`
}

// ChatService answers free-text questions using the owner's reflections and
// recent memories as the only grounding material.
type ChatService struct {
	provider ai.Provider
	model    string
	search   searcher
	repo     chatRepo
	memories memoryAggregator
	cfg      config.CoachConfig
	logger   *log.Logger
}

func NewChatService(provider ai.Provider, model string, se searcher, repo chatRepo, memories memoryAggregator, cfg config.CoachConfig) *ChatService {
	return &ChatService{
		provider: provider,
		model:    model,
		search:   se,
		repo:     repo,
		memories: memories,
		cfg:      cfg.Normalize(),
		logger:   log.New(log.Writer(), "[CHAT] ", log.LstdFlags),
	}
}

type groundedReflection struct {
	store.Reflection
	Score *float64
}

func (c *ChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message required", ErrInvalidRequest)
	}

	reflections, err := c.ground(ctx, req)
	if err != nil {
		return nil, err
	}
	entries, err := c.memories.List(ctx, req.OwnerID, c.cfg.ChatMemoryLimit)
	if err != nil {
		return nil, err
	}

	raw, err := c.provider.Generate(ctx, c.model, c.buildMessages(req.Message, reflections, entries), nil)
	if err != nil {
		return nil, err
	}
	answer := strings.TrimSpace(raw)
	if parsed := ai.ParseStructured(raw); parsed != nil {
		if text, ok := parsed["answer"].(string); ok && strings.TrimSpace(text) != "" {
			answer = strings.TrimSpace(text)
		}
	}

	resp := &ChatResponse{
		Answer:      answer,
		Reflections: make([]ChatReflection, 0, len(reflections)),
		Memories:    make([]ChatMemory, 0, len(entries)),
	}
	for _, r := range reflections {
		resp.Reflections = append(resp.Reflections, ChatReflection{
			ID:             r.ID,
			Title:          r.Title,
			ReflectionDate: r.ReflectionDate,
			Score:          r.Score,
		})
	}
	for _, m := range entries {
		resp.Memories = append(resp.Memories, ChatMemory{
			MemoryType: m.MemoryType,
			Memory:     m.Memory,
			CreatedAt:  m.CreatedAt,
		})
	}
	return resp, nil
}

// ground resolves the reflections the answer may cite: explicit references
// when supplied, otherwise a semantic lookup on the question itself.
func (c *ChatService) ground(ctx context.Context, req ChatRequest) ([]groundedReflection, error) {
	if len(req.References) > 0 {
		rows, err := c.repo.GetReflectionsByIDs(ctx, req.OwnerID, req.References)
		if err != nil {
			return nil, err
		}
		out := make([]groundedReflection, 0, len(rows))
		for _, r := range rows {
			out = append(out, groundedReflection{Reflection: r})
		}
		return out, nil
	}

	matches, err := c.search.Search(ctx, req.OwnerID, req.Message, req.TopK)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	rows, err := c.repo.GetReflectionsByIDs(ctx, req.OwnerID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]store.Reflection, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]groundedReflection, 0, len(matches))
	for _, m := range matches {
		r, ok := byID[m.ID]
		if !ok {
			continue
		}
		out = append(out, groundedReflection{Reflection: r, Score: m.Score})
	}
	return out, nil
}

func (c *ChatService) buildMessages(message string, reflections []groundedReflection, memories []memory.Entry) []ai.Message {
	system := "You are a Korean personal reflection assistant. " +
		"Use only the provided reflections and memories as grounding. " +
		"If information is insufficient, say so briefly. " +
		"Keep answers concise and empathetic. " +
		"Return JSON without code fences: {\"answer\": string}."

	type promptReflection struct {
		ID             int64     `json:"id"`
		RefIdx         int       `json:"ref_idx"`
		Title          string    `json:"title"`
		ReflectionDate time.Time `json:"reflection_date"`
		Content        string    `json:"content"`
	}
	type promptMemory struct {
		MemIdx     int       `json:"mem_idx"`
		MemoryType string    `json:"memory_type"`
		Memory     string    `json:"memory"`
		CreatedAt  time.Time `json:"created_at"`
	}

	payload := map[string]interface{}{"query": message}
	prs := make([]promptReflection, 0, len(reflections))
	for i, r := range reflections {
		content := r.Content
		if runes := []rune(content); len(runes) > c.cfg.ChatContentLimit {
			content = string(runes[:c.cfg.ChatContentLimit])
		}
		prs = append(prs, promptReflection{
			ID:             r.ID,
			RefIdx:         i + 1,
			Title:          r.Title,
			ReflectionDate: r.ReflectionDate,
			Content:        content,
		})
	}
	pms := make([]promptMemory, 0, len(memories))
	for i, m := range memories {
		pms = append(pms, promptMemory{
			MemIdx:     i + 1,
			MemoryType: m.MemoryType,
			Memory:     m.Memory,
			CreatedAt:  m.CreatedAt,
		})
	}
	payload["reflections"] = prs
	payload["memories"] = pms

	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Printf("prompt encode failed: %v", err)
		body = []byte(fmt.Sprintf(`{"query":%q}`, message))
	}
	return []ai.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: string(body)},
	}
}
