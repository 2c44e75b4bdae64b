package coach

import (
	"context"
	"errors"
	"testing"

	"github.com/lookbackhq/lookback/config"
	"github.com/lookbackhq/lookback/internal/ai"
	"github.com/lookbackhq/lookback/internal/memory"
	"github.com/lookbackhq/lookback/internal/store"
)

type stubRepo struct {
	reflection store.Reflection
	found      bool
	err        error
	tags       []store.Tag
}

func (s *stubRepo) GetReflection(ctx context.Context, ownerID string, id int64) (store.Reflection, bool, error) {
	return s.reflection, s.found, s.err
}

func (s *stubRepo) TagsForReflection(ctx context.Context, id int64) ([]store.Tag, error) {
	return s.tags, nil
}

type stubMemories struct {
	entries []memory.Entry
	listErr error
	created []string
}

func (s *stubMemories) List(ctx context.Context, ownerID string, limit int) ([]memory.Entry, error) {
	return s.entries, s.listErr
}

func (s *stubMemories) Create(ctx context.Context, ownerID, memoryType, text string, metadata map[string]interface{}) (*memory.Entry, error) {
	s.created = append(s.created, text)
	return &memory.Entry{Memory: text}, nil
}

type stubAnalyzer struct {
	summary      string
	summaryErr   error
	sentiment    *ai.Sentiment
	sentimentErr error
	keywords     []ai.Keyword
	keywordsErr  error
	tags         []ai.SuggestedTag
	tagsErr      error
	full         *ai.FullAnalysis
	fullErr      error
}

func (s *stubAnalyzer) Summarize(ctx context.Context, content string, memories []ai.MemoryContext) (string, error) {
	return s.summary, s.summaryErr
}

func (s *stubAnalyzer) AnalyzeSentiment(ctx context.Context, content string, memories []ai.MemoryContext) (*ai.Sentiment, error) {
	return s.sentiment, s.sentimentErr
}

func (s *stubAnalyzer) ExtractKeywords(ctx context.Context, content string, memories []ai.MemoryContext) ([]ai.Keyword, error) {
	return s.keywords, s.keywordsErr
}

func (s *stubAnalyzer) SuggestTags(ctx context.Context, content string, memories []ai.MemoryContext, existing []string) ([]ai.SuggestedTag, error) {
	return s.tags, s.tagsErr
}

func (s *stubAnalyzer) AnalyzeFull(ctx context.Context, content string, memories []ai.MemoryContext, existing []string) (*ai.FullAnalysis, error) {
	return s.full, s.fullErr
}

type stubAnalyses struct {
	inserted int
}

func (s *stubAnalyses) InsertCoachAnalysis(ctx context.Context, ownerID string, reflectionID int64, result []byte) error {
	s.inserted++
	return nil
}

func newTestCoach(repo *stubRepo, mems *stubMemories, an *stubAnalyzer, analyses *stubAnalyses) *Service {
	return NewService(repo, mems, an, analyses, config.CoachConfig{})
}

func TestGenerateCoachingRequiresContentOrReflection(t *testing.T) {
	svc := newTestCoach(&stubRepo{}, &stubMemories{}, &stubAnalyzer{}, &stubAnalyses{})
	_, err := svc.GenerateCoaching(context.Background(), Request{OwnerID: "u1"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestGenerateCoachingReflectionNeedsOwner(t *testing.T) {
	svc := newTestCoach(&stubRepo{}, &stubMemories{}, &stubAnalyzer{}, &stubAnalyses{})
	_, err := svc.GenerateCoaching(context.Background(), Request{ReflectionID: 3})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestGenerateCoachingWrongOwnerNotFound(t *testing.T) {
	svc := newTestCoach(&stubRepo{found: false}, &stubMemories{}, &stubAnalyzer{}, &stubAnalyses{})
	_, err := svc.GenerateCoaching(context.Background(), Request{OwnerID: "u2", ReflectionID: 3})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateCoachingEmptyReflectionNotFound(t *testing.T) {
	repo := &stubRepo{found: true, reflection: store.Reflection{ID: 3, OwnerID: "u1", Content: "   "}}
	svc := newTestCoach(repo, &stubMemories{}, &stubAnalyzer{}, &stubAnalyses{})
	_, err := svc.GenerateCoaching(context.Background(), Request{OwnerID: "u1", ReflectionID: 3})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateCoachingContentOnlyNoPersistence(t *testing.T) {
	mems := &stubMemories{}
	analyses := &stubAnalyses{}
	an := &stubAnalyzer{summary: "요약"}
	svc := newTestCoach(&stubRepo{}, mems, an, analyses)
	got, err := svc.GenerateCoaching(context.Background(), Request{Content: "오늘은 힘들었다"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got.Coaching.Mood.Label == "" {
		t.Fatalf("mood label must not be empty")
	}
	if len(mems.created) != 0 || analyses.inserted != 0 {
		t.Fatalf("no persistence expected without an owner id")
	}
}

func TestGenerateCoachingSentimentFallsBackToFullAnalysis(t *testing.T) {
	an := &stubAnalyzer{
		summary:      "s",
		sentimentErr: errors.New("model down"),
		full: &ai.FullAnalysis{
			Summary:   "full summary",
			Sentiment: &ai.Sentiment{Label: "negative", Emotions: map[string]float64{"sadness": 0.8}},
		},
	}
	svc := newTestCoach(&stubRepo{}, &stubMemories{}, an, &stubAnalyses{})
	got, err := svc.GenerateCoaching(context.Background(), Request{Content: "c"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got.Analysis.Sentiment == nil || got.Analysis.Sentiment.Label != "negative" {
		t.Fatalf("full-analysis sentiment not used: %+v", got.Analysis.Sentiment)
	}
	if got.Coaching.Mood.Label != "negative" {
		t.Fatalf("mood label not reconciled: %q", got.Coaching.Mood.Label)
	}
}

func TestGenerateCoachingAllTasksFailedStillSucceeds(t *testing.T) {
	boom := errors.New("down")
	an := &stubAnalyzer{
		summaryErr:   boom,
		sentimentErr: boom,
		keywordsErr:  boom,
		tagsErr:      boom,
		fullErr:      boom,
	}
	svc := newTestCoach(&stubRepo{}, &stubMemories{}, an, &stubAnalyses{})
	got, err := svc.GenerateCoaching(context.Background(), Request{Content: "c"})
	if err != nil {
		t.Fatalf("total analysis failure must not surface: %v", err)
	}
	if got.Analysis.Summary != nil {
		t.Fatalf("summary should be nil")
	}
	if got.Coaching.Mood.Label != "neutral" {
		t.Fatalf("expected neutral default mood, got %q", got.Coaching.Mood.Label)
	}
	if got.Analysis.Keywords == nil || got.Analysis.SuggestedTags == nil {
		t.Fatalf("lists must default to empty, not nil")
	}
}

func TestGenerateCoachingPersistsMemoryAndRecord(t *testing.T) {
	repo := &stubRepo{
		found:      true,
		reflection: store.Reflection{ID: 9, OwnerID: "u1", Title: "t", Content: "본문"},
		tags:       []store.Tag{{ID: 1, Name: "회고"}},
	}
	mems := &stubMemories{}
	analyses := &stubAnalyses{}
	an := &stubAnalyzer{summary: "요약", sentiment: &ai.Sentiment{Label: "positive"}}
	svc := newTestCoach(repo, mems, an, analyses)
	got, err := svc.GenerateCoaching(context.Background(), Request{OwnerID: "u1", ReflectionID: 9})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got.Reflection == nil || got.Reflection.ID != 9 || len(got.Reflection.ExistingTags) != 1 {
		t.Fatalf("reflection info missing: %+v", got.Reflection)
	}
	if len(mems.created) != 1 || mems.created[0] != "요약" {
		t.Fatalf("memory not persisted: %v", mems.created)
	}
	if analyses.inserted != 1 {
		t.Fatalf("analysis record not persisted: %d", analyses.inserted)
	}
}

func TestGenerateCoachingMemoryListingFailureAbsorbed(t *testing.T) {
	mems := &stubMemories{listErr: errors.New("redis down")}
	an := &stubAnalyzer{summary: "s"}
	svc := newTestCoach(&stubRepo{}, mems, an, &stubAnalyses{})
	if _, err := svc.GenerateCoaching(context.Background(), Request{OwnerID: "u1", Content: "c"}); err != nil {
		t.Fatalf("memory failure must not surface: %v", err)
	}
}
