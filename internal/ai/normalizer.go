package ai

import (
	"encoding/json"
	"strings"
)

// ParseStructured extracts a JSON object from a model response. Models often
// wrap JSON in a markdown code fence, or return prose around it; this strips
// the fence when present and falls back to parsing the raw text. Returns nil
// when no JSON object can be recovered. Never errors.
func ParseStructured(raw string) map[string]interface{} {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if inner, ok := stripCodeFence(trimmed); ok {
		if obj := parseObject(inner); obj != nil {
			return obj
		}
	}
	return parseObject(trimmed)
}

func parseObject(s string) map[string]interface{} {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}

func stripCodeFence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") {
		return s, false
	}
	inner := s[len("```"):]
	if len(inner) >= 4 && strings.EqualFold(inner[:4], "json") {
		inner = inner[4:]
	}
	inner = strings.TrimSpace(inner)
	inner = strings.TrimSuffix(inner, "```")
	return strings.TrimSpace(inner), true
}
