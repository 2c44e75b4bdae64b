package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lookbackhq/lookback/internal/ai"
	"github.com/lookbackhq/lookback/internal/runtime"
)

type analysisRunner interface {
	Summarize(ctx context.Context, content string, memories []ai.MemoryContext) (string, error)
	AnalyzeSentiment(ctx context.Context, content string, memories []ai.MemoryContext) (*ai.Sentiment, error)
	ExtractKeywords(ctx context.Context, content string, memories []ai.MemoryContext) ([]ai.Keyword, error)
	SuggestTags(ctx context.Context, content string, memories []ai.MemoryContext, existing []string) ([]ai.SuggestedTag, error)
	AnalyzeFull(ctx context.Context, content string, memories []ai.MemoryContext, existing []string) (*ai.FullAnalysis, error)
}

// AIHandler exposes the standalone analysis task endpoints.
type AIHandler struct {
	Analyzer analysisRunner
}

func (h *AIHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.POST("/summarize", h.summarize)
	g.POST("/analyze-sentiment", h.analyzeSentiment)
	g.POST("/extract-keywords", h.extractKeywords)
	g.POST("/suggest-tags", h.suggestTags)
	g.POST("/analyze-full", h.analyzeFull)
}

func (h *AIHandler) bind(c echo.Context) (AnalyzeRequest, error) {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Content == "" {
		return req, echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}
	return req, nil
}

func (h *AIHandler) summarize(c echo.Context) error {
	req, err := h.bind(c)
	if err != nil {
		return err
	}
	summary, err := h.Analyzer.Summarize(c.Request().Context(), req.Content, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"summary": summary})
}

func (h *AIHandler) analyzeSentiment(c echo.Context) error {
	req, err := h.bind(c)
	if err != nil {
		return err
	}
	sentiment, err := h.Analyzer.AnalyzeSentiment(c.Request().Context(), req.Content, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sentiment": sentiment})
}

func (h *AIHandler) extractKeywords(c echo.Context) error {
	req, err := h.bind(c)
	if err != nil {
		return err
	}
	keywords, err := h.Analyzer.ExtractKeywords(c.Request().Context(), req.Content, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"keywords": keywords})
}

func (h *AIHandler) suggestTags(c echo.Context) error {
	req, err := h.bind(c)
	if err != nil {
		return err
	}
	tags, err := h.Analyzer.SuggestTags(c.Request().Context(), req.Content, nil, req.ExistingTags)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"suggested_tags": tags})
}

func (h *AIHandler) analyzeFull(c echo.Context) error {
	req, err := h.bind(c)
	if err != nil {
		return err
	}
	full, err := h.Analyzer.AnalyzeFull(c.Request().Context(), req.Content, nil, req.ExistingTags)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, full)
}
