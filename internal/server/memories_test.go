package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lookbackhq/lookback/internal/memory"
)

type stubMemoryService struct {
	entries   []memory.Entry
	created   *memory.Entry
	lastLimit int
	lastType  string
}

func (s *stubMemoryService) List(ctx context.Context, ownerID string, limit int) ([]memory.Entry, error) {
	s.lastLimit = limit
	return s.entries, nil
}

func (s *stubMemoryService) Create(ctx context.Context, ownerID, memoryType, text string, metadata map[string]interface{}) (*memory.Entry, error) {
	s.lastType = memoryType
	return s.created, nil
}

func memoriesContext(body, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	method := http.MethodGet
	if body != "" {
		method = http.MethodPost
	}
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "u1")
	return c, rec
}

func TestMemoriesListLimitParam(t *testing.T) {
	svc := &stubMemoryService{entries: []memory.Entry{{ID: 1, MemoryType: "x", Memory: "m"}}}
	h := &MemoriesHandler{Service: svc}
	c, rec := memoriesContext("", "/api/memories?limit=5")
	if err := h.list(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if svc.lastLimit != 5 {
		t.Fatalf("limit not forwarded: %d", svc.lastLimit)
	}
}

func TestMemoriesListDefaultAndCap(t *testing.T) {
	svc := &stubMemoryService{}
	h := &MemoriesHandler{Service: svc}

	c, _ := memoriesContext("", "/api/memories")
	if err := h.list(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if svc.lastLimit != 20 {
		t.Fatalf("default limit = %d, want 20", svc.lastLimit)
	}

	c, _ = memoriesContext("", "/api/memories?limit=500")
	if err := h.list(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if svc.lastLimit != 50 {
		t.Fatalf("capped limit = %d, want 50", svc.lastLimit)
	}
}

func TestMemoriesListBadLimit(t *testing.T) {
	h := &MemoriesHandler{Service: &stubMemoryService{}}
	c, _ := memoriesContext("", "/api/memories?limit=abc")
	err := h.list(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestMemoriesCreateValidation(t *testing.T) {
	h := &MemoriesHandler{Service: &stubMemoryService{}}
	c, _ := memoriesContext(`{"memory":"text"}`, "/api/memories")
	err := h.create(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without memory_type, got %v", err)
	}
}

func TestMemoriesCreate(t *testing.T) {
	svc := &stubMemoryService{created: &memory.Entry{ID: 2, MemoryType: "note", Memory: "m"}}
	h := &MemoriesHandler{Service: svc}
	c, rec := memoriesContext(`{"memory_type":"note","memory":"m"}`, "/api/memories")
	if err := h.create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if svc.lastType != "note" {
		t.Fatalf("payload not forwarded: %s", svc.lastType)
	}
}
