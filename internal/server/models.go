package server

import "time"

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest represents the signup payload.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AuthLoginRequest represents the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// MeResponse returns the current authenticated user id.
type MeResponse struct {
	UserID string `json:"user_id"`
}

// CreateReflectionRequest is the payload for creating a reflection.
type CreateReflectionRequest struct {
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	ReflectionDate *time.Time `json:"reflection_date"`
}

// UpdateReflectionRequest is the payload for updating a reflection.
type UpdateReflectionRequest struct {
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	ReflectionDate *time.Time `json:"reflection_date"`
}

// IDResponse wraps a numeric id.
type IDResponse struct {
	ID int64 `json:"id"`
}

// SearchRequest asks for reflections matching a query.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// CreateMemoryRequest appends an AI memory.
type CreateMemoryRequest struct {
	MemoryType string                 `json:"memory_type"`
	Memory     string                 `json:"memory"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// CreateTagRequest names a new tag.
type CreateTagRequest struct {
	Name string `json:"name"`
}

// CoachRequest triggers coaching over a reflection or raw content.
type CoachRequest struct {
	ReflectionID int64  `json:"reflection_id"`
	Content      string `json:"content"`
}

// ChatRequest asks a grounded question.
type ChatRequest struct {
	Message    string  `json:"message"`
	References []int64 `json:"references"`
	TopK       int     `json:"top_k"`
}

// AnalyzeRequest is the shared payload of the analysis task endpoints.
type AnalyzeRequest struct {
	Content      string   `json:"content"`
	ExistingTags []string `json:"existing_tags"`
}
