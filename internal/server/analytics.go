package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lookbackhq/lookback/internal/runtime"
	"github.com/lookbackhq/lookback/internal/store"
)

type analyticsStore interface {
	CountReflections(ctx context.Context, ownerID string) (store.ReflectionCounts, error)
	TagFrequency(ctx context.Context, ownerID string) ([]store.TagCount, error)
}

// AnalyticsHandler reports writing-habit statistics.
type AnalyticsHandler struct {
	Store analyticsStore
}

func (h *AnalyticsHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.GET("/summary", h.summary)
}

func (h *AnalyticsHandler) summary(c echo.Context) error {
	ctx := c.Request().Context()
	owner := userID(c)
	counts, err := h.Store.CountReflections(ctx, owner)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	tags, err := h.Store.TagFrequency(ctx, owner)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reflections": counts,
		"tags":        tags,
	})
}
