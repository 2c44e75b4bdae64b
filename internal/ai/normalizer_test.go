package ai

import (
	"encoding/json"
	"testing"
)

func TestParseStructuredPlainJSON(t *testing.T) {
	got := ParseStructured(`{"summary":"ok","n":2}`)
	if got == nil {
		t.Fatalf("expected object, got nil")
	}
	if got["summary"] != "ok" {
		t.Fatalf("unexpected summary: %v", got["summary"])
	}
}

func TestParseStructuredFenced(t *testing.T) {
	raw := "```json\n{\"answer\": \"hello\"}\n```"
	got := ParseStructured(raw)
	if got == nil || got["answer"] != "hello" {
		t.Fatalf("fenced json not parsed: %v", got)
	}
}

func TestParseStructuredFencedNoTag(t *testing.T) {
	raw := "```\n{\"answer\": \"hi\"}\n```"
	got := ParseStructured(raw)
	if got == nil || got["answer"] != "hi" {
		t.Fatalf("untagged fence not parsed: %v", got)
	}
}

func TestParseStructuredProse(t *testing.T) {
	if got := ParseStructured("I could not produce JSON today."); got != nil {
		t.Fatalf("expected nil for prose, got %v", got)
	}
}

func TestParseStructuredEmpty(t *testing.T) {
	if got := ParseStructured(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := ParseStructured("   \n\t"); got != nil {
		t.Fatalf("expected nil for whitespace input, got %v", got)
	}
}

func TestParseStructuredIdempotent(t *testing.T) {
	first := ParseStructured(`{"a":1,"b":{"c":[1,2,3]}}`)
	if first == nil {
		t.Fatalf("expected object")
	}
	body, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second := ParseStructured(string(body))
	if second == nil {
		t.Fatalf("re-parse returned nil")
	}
	again, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(body) != string(again) {
		t.Fatalf("round trip mismatch: %s vs %s", body, again)
	}
}

func TestParseStructuredSurroundingWhitespace(t *testing.T) {
	got := ParseStructured("\n\n  {\"k\":\"v\"}  \n")
	if got == nil || got["k"] != "v" {
		t.Fatalf("whitespace-wrapped json not parsed: %v", got)
	}
}
