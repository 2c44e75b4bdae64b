package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lookbackhq/lookback/internal/coach"
	"github.com/lookbackhq/lookback/internal/runtime"
	"github.com/lookbackhq/lookback/internal/store"
)

type coachService interface {
	GenerateCoaching(ctx context.Context, req coach.Request) (*coach.Result, error)
}

type coachAnalysisStore interface {
	LatestCoachAnalysis(ctx context.Context, ownerID string, reflectionID int64) (store.CoachAnalysisRecord, bool, error)
}

// CoachHandler runs coaching generation and serves stored analyses.
type CoachHandler struct {
	Service  coachService
	Analyses coachAnalysisStore
}

func (h *CoachHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.POST("/generate", h.generate)
	g.GET("/analysis/:id", h.latestAnalysis)
}

func (h *CoachHandler) generate(c echo.Context) error {
	var req CoachRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.Service.GenerateCoaching(c.Request().Context(), coach.Request{
		OwnerID:      userID(c),
		ReflectionID: req.ReflectionID,
		Content:      req.Content,
	})
	coachingRequests.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		switch {
		case errors.Is(err, coach.ErrInvalidRequest):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, coach.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, result)
}

func (h *CoachHandler) latestAnalysis(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	rec, found, err := h.Analyses.LatestCoachAnalysis(c.Request().Context(), userID(c), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "coach analysis not found")
	}
	var result interface{}
	if err := json.Unmarshal(rec.Result, &result); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "stored analysis is corrupt")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reflection_id": id,
		"created_at":    rec.CreatedAt,
		"result":        result,
	})
}
