package ai

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

type stubProvider struct {
	response string
	err      error
	lastSys  string
	lastUser string
}

func (s *stubProvider) Generate(ctx context.Context, model string, messages []Message, options map[string]interface{}) (string, error) {
	for _, m := range messages {
		switch m.Role {
		case "system":
			s.lastSys = m.Content
		case "user":
			s.lastUser = m.Content
		}
	}
	return s.response, s.err
}

func TestSummarizeUsesSummaryField(t *testing.T) {
	p := &stubProvider{response: `{"summary": "짧은 요약"}`}
	got, err := NewAnalyzer(p, "m").Summarize(context.Background(), "오늘의 일기", nil)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "짧은 요약" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestSummarizeFallsBackToRawText(t *testing.T) {
	p := &stubProvider{response: "A plain prose summary."}
	got, err := NewAnalyzer(p, "m").Summarize(context.Background(), "entry", nil)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "A plain prose summary." {
		t.Fatalf("unexpected fallback: %q", got)
	}
}

func TestAnalyzeSentimentParsesObject(t *testing.T) {
	p := &stubProvider{response: `{"sentiment": {"label": "negative", "score": 0.8, "emotions": {"sadness": 0.7}}}`}
	got, err := NewAnalyzer(p, "m").AnalyzeSentiment(context.Background(), "entry", nil)
	if err != nil {
		t.Fatalf("sentiment: %v", err)
	}
	if got.Label != "negative" || got.Score == nil || *got.Score != 0.8 {
		t.Fatalf("unexpected sentiment: %+v", got)
	}
	if got.Emotions["sadness"] != 0.7 {
		t.Fatalf("emotions not decoded: %+v", got.Emotions)
	}
}

func TestAnalyzeSentimentUnknownFallback(t *testing.T) {
	p := &stubProvider{response: "I feel unsure about this one."}
	got, err := NewAnalyzer(p, "m").AnalyzeSentiment(context.Background(), "entry", nil)
	if err != nil {
		t.Fatalf("sentiment: %v", err)
	}
	if got.Label != "unknown" {
		t.Fatalf("expected unknown label, got %q", got.Label)
	}
	if got.Score != nil {
		t.Fatalf("expected nil score")
	}
	if got.Note == "" {
		t.Fatalf("expected raw text preserved in note")
	}
}

func TestAnalyzeSentimentNoteKeepsRunesIntact(t *testing.T) {
	p := &stubProvider{response: strings.Repeat("가", 200)}
	got, err := NewAnalyzer(p, "m").AnalyzeSentiment(context.Background(), "entry", nil)
	if err != nil {
		t.Fatalf("sentiment: %v", err)
	}
	if !utf8.ValidString(got.Note) {
		t.Fatalf("note is not valid UTF-8: %q", got.Note)
	}
	if got.Note != strings.Repeat("가", 120) {
		t.Fatalf("note not capped at 120 characters: %d runes", len([]rune(got.Note)))
	}
}

func TestExtractKeywordsSyntheticFallback(t *testing.T) {
	p := &stubProvider{response: "keyword-ish prose"}
	got, err := NewAnalyzer(p, "m").ExtractKeywords(context.Background(), "entry", nil)
	if err != nil {
		t.Fatalf("keywords: %v", err)
	}
	if len(got) != 1 || got[0].Relevance != 1 {
		t.Fatalf("expected one synthetic keyword with relevance 1, got %+v", got)
	}
}

func TestSuggestTagsSeedsExistingTags(t *testing.T) {
	p := &stubProvider{response: `{"suggested_tags": [{"name": "운동", "confidence": 0.9}]}`}
	got, err := NewAnalyzer(p, "m").SuggestTags(context.Background(), "entry", nil, []string{"운동", "회고"})
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if len(got) != 1 || got[0].Name != "운동" {
		t.Fatalf("unexpected tags: %+v", got)
	}
	if !strings.Contains(p.lastUser, "existing_tags") {
		t.Fatalf("existing tags not sent to the model: %s", p.lastUser)
	}
}

func TestSuggestTagsSyntheticFallback(t *testing.T) {
	p := &stubProvider{response: "no json here"}
	got, err := NewAnalyzer(p, "m").SuggestTags(context.Background(), "entry", nil, nil)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if len(got) != 1 || got[0].Confidence != 0.5 {
		t.Fatalf("expected one synthetic tag with confidence 0.5, got %+v", got)
	}
}

func TestAnalyzeFullDecodesAllFields(t *testing.T) {
	p := &stubProvider{response: "```json\n" + `{
		"summary": "s",
		"sentiment": {"label": "positive", "emotions": {"joy": 0.9}},
		"keywords": [{"word": "w", "relevance": 0.4}],
		"suggested_tags": [{"name": "t", "confidence": 0.6}]
	}` + "\n```"}
	got, err := NewAnalyzer(p, "m").AnalyzeFull(context.Background(), "entry", nil, nil)
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	if got.Summary != "s" || got.Sentiment == nil || got.Sentiment.Label != "positive" {
		t.Fatalf("unexpected full analysis: %+v", got)
	}
	if len(got.Keywords) != 1 || len(got.SuggestedTags) != 1 {
		t.Fatalf("lists not decoded: %+v", got)
	}
}

func TestAnalyzeFullProseFallback(t *testing.T) {
	p := &stubProvider{response: "just prose"}
	got, err := NewAnalyzer(p, "m").AnalyzeFull(context.Background(), "entry", nil, nil)
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	if got.Summary != "just prose" || got.Sentiment != nil {
		t.Fatalf("unexpected fallback: %+v", got)
	}
}

func TestMemoriesIncludedInPayload(t *testing.T) {
	p := &stubProvider{response: `{"summary": "x"}`}
	mems := []MemoryContext{{MemoryType: "reflection_summary", Memory: "past note"}}
	if _, err := NewAnalyzer(p, "m").Summarize(context.Background(), "entry", mems); err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !strings.Contains(p.lastUser, "past note") {
		t.Fatalf("memory context missing from payload: %s", p.lastUser)
	}
}
