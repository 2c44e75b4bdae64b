package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmbeddingUnavailable is returned when the embedding model call fails or
// its response cannot be coerced into a numeric vector. One attempt, no
// retries; callers decide how to degrade.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// Gateway wraps the embedding call and validates the response shape.
type Gateway struct {
	client EmbeddingClient
	model  string
}

func NewGateway(client EmbeddingClient, model string) *Gateway {
	return &Gateway{client: client, model: model}
}

// Embed converts text into a fixed-dimension vector.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embed: text required")
	}
	payload, err := g.client.CreateEmbedding(ctx, g.model, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	vector, ok := coerceVector(payload)
	if !ok {
		return nil, fmt.Errorf("%w: model did not return a vector", ErrEmbeddingUnavailable)
	}
	return vector, nil
}

// coerceVector extracts a numeric vector from whatever shape the embedding
// model returned, trying in order: data[0] (bare array or {embedding: [...]}),
// then embedding, then vector.
func coerceVector(payload map[string]interface{}) ([]float32, bool) {
	if payload == nil {
		return nil, false
	}
	if data, ok := payload["data"].([]interface{}); ok && len(data) > 0 {
		switch first := data[0].(type) {
		case []interface{}:
			if vec, ok := toFloat32Slice(first); ok {
				return vec, true
			}
		case map[string]interface{}:
			if raw, ok := first["embedding"].([]interface{}); ok {
				if vec, ok := toFloat32Slice(raw); ok {
					return vec, true
				}
			}
		}
	}
	if raw, ok := payload["embedding"].([]interface{}); ok {
		if vec, ok := toFloat32Slice(raw); ok {
			return vec, true
		}
	}
	if raw, ok := payload["vector"].([]interface{}); ok {
		if vec, ok := toFloat32Slice(raw); ok {
			return vec, true
		}
	}
	return nil, false
}

func toFloat32Slice(raw []interface{}) ([]float32, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	out := make([]float32, len(raw))
	for i, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil, false
		}
		out[i] = float32(f)
	}
	return out, true
}
