package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// MemoryContext is the compact memory shape handed to analysis prompts.
type MemoryContext struct {
	MemoryType string                 `json:"memory_type"`
	Memory     string                 `json:"memory"`
	CreatedAt  time.Time              `json:"created_at"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Sentiment carries a label plus per-emotion scores. Score and Emotions are
// nil when the model returned nothing usable; Note then holds the raw text.
type Sentiment struct {
	Label    string             `json:"label"`
	Score    *float64           `json:"score"`
	Emotions map[string]float64 `json:"emotions,omitempty"`
	Note     string             `json:"note,omitempty"`
}

type Keyword struct {
	Word      string  `json:"word"`
	Relevance float64 `json:"relevance"`
}

type SuggestedTag struct {
	Name        string  `json:"name"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description,omitempty"`
}

// FullAnalysis bundles all four task outputs from a single model call.
type FullAnalysis struct {
	Summary       string         `json:"summary"`
	Sentiment     *Sentiment     `json:"sentiment"`
	Keywords      []Keyword      `json:"keywords"`
	SuggestedTags []SuggestedTag `json:"suggested_tags"`
}

// Analyzer runs the per-task structured analysis calls. Each method issues
// one model call, normalizes the response, and falls back to a synthetic
// shape when the model did not produce the expected field.
type Analyzer struct {
	provider Provider
	model    string
	logger   *log.Logger
}

func NewAnalyzer(provider Provider, model string) *Analyzer {
	return &Analyzer{
		provider: provider,
		model:    model,
		logger:   log.New(log.Writer(), "[AI] ", log.LstdFlags),
	}
}

const maxSyntheticLen = 120

func (a *Analyzer) call(ctx context.Context, system string, payload map[string]interface{}) (map[string]interface{}, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("encoding analysis payload: %w", err)
	}
	raw, err := a.provider.Generate(ctx, a.model, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: string(body)},
	}, nil)
	if err != nil {
		return nil, "", err
	}
	return ParseStructured(raw), raw, nil
}

// decodeField re-serializes one field of the parsed object into out.
// Returns false when the field is absent or does not fit the target shape.
func decodeField(parsed map[string]interface{}, key string, out interface{}) bool {
	if parsed == nil {
		return false
	}
	value, ok := parsed[key]
	if !ok || value == nil {
		return false
	}
	body, err := json.Marshal(value)
	if err != nil {
		return false
	}
	return json.Unmarshal(body, out) == nil
}

func basePayload(content string, memories []MemoryContext) map[string]interface{} {
	payload := map[string]interface{}{"content": content}
	if len(memories) > 0 {
		payload["memories"] = memories
	}
	return payload
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Summarize produces a short summary of the content. Falls back to the raw
// trimmed model text when no summary field comes back.
func (a *Analyzer) Summarize(ctx context.Context, content string, memories []MemoryContext) (string, error) {
	system := "You summarize personal journal reflections in the language they were written in. " +
		"Use the provided memories only as background. " +
		"Return JSON without code fences: {\"summary\": string}."
	parsed, raw, err := a.call(ctx, system, basePayload(content, memories))
	if err != nil {
		return "", err
	}
	var summary string
	if decodeField(parsed, "summary", &summary) && strings.TrimSpace(summary) != "" {
		return strings.TrimSpace(summary), nil
	}
	return strings.TrimSpace(raw), nil
}

// AnalyzeSentiment classifies the emotional tone of the content. When the
// model did not produce a sentiment object the result is label "unknown"
// with the raw text preserved in Note.
func (a *Analyzer) AnalyzeSentiment(ctx context.Context, content string, memories []MemoryContext) (*Sentiment, error) {
	system := "You analyze the emotional tone of a personal journal reflection. " +
		"Return JSON without code fences: {\"sentiment\": {\"label\": \"positive\"|\"neutral\"|\"negative\", " +
		"\"score\": number 0..1, \"emotions\": {emotion: score 0..1}}}."
	parsed, raw, err := a.call(ctx, system, basePayload(content, memories))
	if err != nil {
		return nil, err
	}
	var sentiment Sentiment
	if decodeField(parsed, "sentiment", &sentiment) && sentiment.Label != "" {
		return &sentiment, nil
	}
	return &Sentiment{Label: "unknown", Note: truncate(raw, maxSyntheticLen)}, nil
}

// ExtractKeywords pulls the most relevant words or phrases from the content.
// Falls back to a single synthetic keyword built from the raw text.
func (a *Analyzer) ExtractKeywords(ctx context.Context, content string, memories []MemoryContext) ([]Keyword, error) {
	system := "You extract the most relevant keywords from a personal journal reflection. " +
		"Return JSON without code fences: {\"keywords\": [{\"word\": string, \"relevance\": number 0..1}]}."
	parsed, raw, err := a.call(ctx, system, basePayload(content, memories))
	if err != nil {
		return nil, err
	}
	var keywords []Keyword
	if decodeField(parsed, "keywords", &keywords) && len(keywords) > 0 {
		return keywords, nil
	}
	return []Keyword{{Word: truncate(raw, maxSyntheticLen), Relevance: 1}}, nil
}

// SuggestTags proposes tags for the content, seeded with the owner's
// existing tag names so the model avoids near-duplicates.
func (a *Analyzer) SuggestTags(ctx context.Context, content string, memories []MemoryContext, existing []string) ([]SuggestedTag, error) {
	system := "You suggest short tags for a personal journal reflection. " +
		"Prefer reusing an existing tag over inventing a near-duplicate. " +
		"Return JSON without code fences: {\"suggested_tags\": [{\"name\": string, \"confidence\": number 0..1, \"description\": string}]}."
	payload := basePayload(content, memories)
	if len(existing) > 0 {
		payload["existing_tags"] = existing
	}
	parsed, raw, err := a.call(ctx, system, payload)
	if err != nil {
		return nil, err
	}
	var tags []SuggestedTag
	if decodeField(parsed, "suggested_tags", &tags) && len(tags) > 0 {
		return tags, nil
	}
	return []SuggestedTag{{Name: truncate(raw, maxSyntheticLen), Confidence: 0.5}}, nil
}

// AnalyzeFull runs all four analyses in one call. Used as the fallback
// source when any individual task fails.
func (a *Analyzer) AnalyzeFull(ctx context.Context, content string, memories []MemoryContext, existing []string) (*FullAnalysis, error) {
	system := "You analyze a personal journal reflection. " +
		"Return JSON without code fences with all of: " +
		"{\"summary\": string, " +
		"\"sentiment\": {\"label\": \"positive\"|\"neutral\"|\"negative\", \"score\": number 0..1, \"emotions\": {emotion: score 0..1}}, " +
		"\"keywords\": [{\"word\": string, \"relevance\": number 0..1}], " +
		"\"suggested_tags\": [{\"name\": string, \"confidence\": number 0..1}]}."
	payload := basePayload(content, memories)
	if len(existing) > 0 {
		payload["existing_tags"] = existing
	}
	parsed, raw, err := a.call(ctx, system, payload)
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return &FullAnalysis{Summary: strings.TrimSpace(raw)}, nil
	}
	var full FullAnalysis
	body, err := json.Marshal(parsed)
	if err != nil {
		return &FullAnalysis{Summary: strings.TrimSpace(raw)}, nil
	}
	if err := json.Unmarshal(body, &full); err != nil {
		a.logger.Printf("full analysis response did not fit expected shape: %v", err)
		return &FullAnalysis{Summary: strings.TrimSpace(raw)}, nil
	}
	if full.Summary == "" {
		full.Summary = strings.TrimSpace(raw)
	}
	return &full, nil
}
