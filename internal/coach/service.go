// Package coach orchestrates reflection analysis: it fans out the five
// analysis tasks concurrently, reconciles their results against the combined
// analysis, derives coaching artifacts, and persists a memory plus an
// analysis record as best-effort side effects.
package coach

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/lookbackhq/lookback/config"
	"github.com/lookbackhq/lookback/internal/ai"
	"github.com/lookbackhq/lookback/internal/memory"
	"github.com/lookbackhq/lookback/internal/store"
)

var (
	// ErrInvalidRequest covers missing identifying input: neither content
	// nor a reflection id, or a reflection id without an owner id.
	ErrInvalidRequest = errors.New("content or reflection id required")
	// ErrNotFound means the reflection does not exist for the owner or has
	// no analyzable content.
	ErrNotFound = errors.New("reflection not found")
)

type reflectionRepo interface {
	GetReflection(ctx context.Context, ownerID string, id int64) (store.Reflection, bool, error)
	TagsForReflection(ctx context.Context, id int64) ([]store.Tag, error)
}

type memoryAggregator interface {
	List(ctx context.Context, ownerID string, limit int) ([]memory.Entry, error)
	Create(ctx context.Context, ownerID, memoryType, text string, metadata map[string]interface{}) (*memory.Entry, error)
}

type analyzer interface {
	Summarize(ctx context.Context, content string, memories []ai.MemoryContext) (string, error)
	AnalyzeSentiment(ctx context.Context, content string, memories []ai.MemoryContext) (*ai.Sentiment, error)
	ExtractKeywords(ctx context.Context, content string, memories []ai.MemoryContext) ([]ai.Keyword, error)
	SuggestTags(ctx context.Context, content string, memories []ai.MemoryContext, existing []string) ([]ai.SuggestedTag, error)
	AnalyzeFull(ctx context.Context, content string, memories []ai.MemoryContext, existing []string) (*ai.FullAnalysis, error)
}

type analysisStore interface {
	InsertCoachAnalysis(ctx context.Context, ownerID string, reflectionID int64, result []byte) error
}

// Request identifies what to coach on. ReflectionID zero means absent.
type Request struct {
	OwnerID      string `json:"user_id"`
	ReflectionID int64  `json:"reflection_id"`
	Content      string `json:"content"`
}

type Mood struct {
	Label           string   `json:"label"`
	Score           *float64 `json:"score"`
	DominantEmotion Emotion  `json:"dominant_emotion"`
}

type Coaching struct {
	Mood              Mood              `json:"mood"`
	Affirmation       string            `json:"affirmation"`
	ActionItems       []string          `json:"action_items"`
	FollowUpQuestions []string          `json:"follow_up_questions"`
	FocusPoints       []FocusPoint      `json:"focus_points"`
	RecommendedTags   []ai.SuggestedTag `json:"recommended_tags"`
}

type Analysis struct {
	Summary       *string           `json:"summary"`
	Sentiment     *ai.Sentiment     `json:"sentiment"`
	Keywords      []ai.Keyword      `json:"keywords"`
	SuggestedTags []ai.SuggestedTag `json:"suggested_tags"`
}

type ReflectionInfo struct {
	ID             int64       `json:"id"`
	Title          string      `json:"title"`
	ReflectionDate time.Time   `json:"reflection_date"`
	ExistingTags   []store.Tag `json:"existing_tags"`
}

type Result struct {
	Reflection *ReflectionInfo `json:"reflection"`
	Analysis   Analysis        `json:"analysis"`
	Coaching   Coaching        `json:"coaching"`
}

// Service is the coaching orchestrator.
type Service struct {
	repo     reflectionRepo
	memories memoryAggregator
	analyzer analyzer
	analyses analysisStore
	cfg      config.CoachConfig
	logger   *log.Logger
}

func NewService(repo reflectionRepo, memories memoryAggregator, an analyzer, analyses analysisStore, cfg config.CoachConfig) *Service {
	cfg = cfg.Normalize()
	return &Service{
		repo:     repo,
		memories: memories,
		analyzer: an,
		analyses: analyses,
		cfg:      cfg,
		logger:   log.New(log.Writer(), "[COACH] ", log.LstdFlags),
	}
}

// GenerateCoaching runs one coaching pass. Only ErrInvalidRequest and
// ErrNotFound ever reach the caller; every analysis or persistence failure
// degrades to defaults instead.
func (s *Service) GenerateCoaching(ctx context.Context, req Request) (*Result, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" && req.ReflectionID == 0 {
		return nil, ErrInvalidRequest
	}

	var info *ReflectionInfo
	var existingTags []store.Tag
	if content == "" {
		if req.OwnerID == "" {
			return nil, ErrInvalidRequest
		}
		reflection, found, err := s.repo.GetReflection(ctx, req.OwnerID, req.ReflectionID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrNotFound
		}
		content = strings.TrimSpace(reflection.Content)
		if content == "" {
			return nil, ErrNotFound
		}
		tags, err := s.repo.TagsForReflection(ctx, reflection.ID)
		if err != nil {
			return nil, err
		}
		existingTags = tags
		info = &ReflectionInfo{
			ID:             reflection.ID,
			Title:          reflection.Title,
			ReflectionDate: reflection.ReflectionDate,
			ExistingTags:   tags,
		}
	}

	memCtx := s.memoryContext(ctx, req.OwnerID)
	tagNames := make([]string, 0, len(existingTags))
	for _, t := range existingTags {
		tagNames = append(tagNames, t.Name)
	}

	tasks := s.runTasks(ctx, content, memCtx, tagNames)

	// Reconcile task results against the combined analysis, then defaults.
	summary := tasks.summary
	sentiment := tasks.sentiment
	keywords := tasks.keywords
	suggestedTags := tasks.suggestedTags
	if tasks.full != nil {
		if summary == nil && tasks.full.Summary != "" {
			summary = &tasks.full.Summary
		}
		if sentiment == nil {
			sentiment = tasks.full.Sentiment
		}
		if keywords == nil {
			keywords = tasks.full.Keywords
		}
		if suggestedTags == nil {
			suggestedTags = tasks.full.SuggestedTags
		}
	}
	if keywords == nil {
		keywords = []ai.Keyword{}
	}
	if suggestedTags == nil {
		suggestedTags = []ai.SuggestedTag{}
	}

	label := "neutral"
	var score *float64
	var emotions map[string]float64
	if sentiment != nil {
		if sentiment.Label != "" {
			label = sentiment.Label
		}
		score = sentiment.Score
		emotions = sentiment.Emotions
	}
	primary := dominantEmotion(emotions)

	coaching := Coaching{
		Mood: Mood{
			Label:           label,
			Score:           score,
			DominantEmotion: primary,
		},
		Affirmation:       selectAffirmation(label),
		ActionItems:       buildActionItems(label, primary, s.cfg.MaxActionItems),
		FollowUpQuestions: buildFollowUpQuestions(label, primary, s.cfg.MaxFollowUps),
		FocusPoints:       buildFocusPoints(keywords, s.cfg.MaxFocusPoints),
		RecommendedTags:   suggestedTags,
	}

	result := &Result{
		Reflection: info,
		Analysis: Analysis{
			Summary:       summary,
			Sentiment:     sentiment,
			Keywords:      keywords,
			SuggestedTags: suggestedTags,
		},
		Coaching: coaching,
	}

	s.persistMemory(ctx, req, summary, sentiment, suggestedTags, coaching.ActionItems)
	s.persistAnalysis(ctx, req, result)

	return result, nil
}

func (s *Service) memoryContext(ctx context.Context, ownerID string) []ai.MemoryContext {
	if ownerID == "" {
		return nil
	}
	entries, err := s.memories.List(ctx, ownerID, s.cfg.MemoryLimit)
	if err != nil {
		s.logger.Printf("memory listing failed, continuing without context: %v", err)
		return nil
	}
	out := make([]ai.MemoryContext, 0, len(entries))
	for _, e := range entries {
		out = append(out, ai.MemoryContext{
			MemoryType: e.MemoryType,
			Memory:     e.Memory,
			CreatedAt:  e.CreatedAt,
			Metadata:   e.Metadata,
		})
	}
	return out
}

type taskResults struct {
	summary       *string
	sentiment     *ai.Sentiment
	keywords      []ai.Keyword
	suggestedTags []ai.SuggestedTag
	full          *ai.FullAnalysis
}

// runTasks fans the five analysis calls out concurrently and joins them.
// A failed task contributes nil; it never aborts the others.
func (s *Service) runTasks(ctx context.Context, content string, memCtx []ai.MemoryContext, tagNames []string) taskResults {
	var res taskResults
	var wg sync.WaitGroup
	var mu sync.Mutex

	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			taskCtx, cancel := context.WithTimeout(ctx, s.cfg.TaskTimeout)
			defer cancel()
			if err := fn(taskCtx); err != nil {
				s.logger.Printf("%s task failed: %v", name, err)
			}
		}()
	}

	copyCtx := func() []ai.MemoryContext {
		return append([]ai.MemoryContext(nil), memCtx...)
	}

	run("summarize", func(ctx context.Context) error {
		summary, err := s.analyzer.Summarize(ctx, content, copyCtx())
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if strings.TrimSpace(summary) != "" {
			res.summary = &summary
		}
		return nil
	})
	run("sentiment", func(ctx context.Context) error {
		sentiment, err := s.analyzer.AnalyzeSentiment(ctx, content, copyCtx())
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		res.sentiment = sentiment
		return nil
	})
	run("keywords", func(ctx context.Context) error {
		keywords, err := s.analyzer.ExtractKeywords(ctx, content, copyCtx())
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		res.keywords = keywords
		return nil
	})
	run("suggest-tags", func(ctx context.Context) error {
		tags, err := s.analyzer.SuggestTags(ctx, content, copyCtx(), tagNames)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		res.suggestedTags = tags
		return nil
	})
	run("full-analysis", func(ctx context.Context) error {
		full, err := s.analyzer.AnalyzeFull(ctx, content, copyCtx(), tagNames)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		res.full = full
		return nil
	})

	wg.Wait()
	return res
}

func (s *Service) persistMemory(ctx context.Context, req Request, summary *string, sentiment *ai.Sentiment, tags []ai.SuggestedTag, actionItems []string) {
	if req.OwnerID == "" || summary == nil {
		return
	}
	metadata := map[string]interface{}{
		"sentiment":        sentiment,
		"recommended_tags": tags,
		"action_items":     actionItems,
	}
	if req.ReflectionID != 0 {
		metadata["reflectionId"] = req.ReflectionID
	}
	if _, err := s.memories.Create(ctx, req.OwnerID, "reflection_summary", *summary, metadata); err != nil {
		s.logger.Printf("memory persist failed: %v", err)
	}
}

func (s *Service) persistAnalysis(ctx context.Context, req Request, result *Result) {
	if req.OwnerID == "" || req.ReflectionID == 0 {
		return
	}
	body, err := json.Marshal(result)
	if err != nil {
		s.logger.Printf("analysis encode failed: %v", err)
		return
	}
	if err := s.analyses.InsertCoachAnalysis(ctx, req.OwnerID, req.ReflectionID, body); err != nil {
		s.logger.Printf("analysis persist failed: %v", err)
	}
}
