package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lookbackhq/lookback/internal/runtime"
	"github.com/lookbackhq/lookback/internal/search"
)

type searchService interface {
	Search(ctx context.Context, ownerID, query string, topK int) ([]search.Result, error)
}

// SearchHandler exposes semantic reflection search.
type SearchHandler struct {
	Service searchService
}

func (h *SearchHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.POST("", h.search)
}

func (h *SearchHandler) search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	results, err := h.Service.Search(c.Request().Context(), userID(c), req.Query, req.TopK)
	searchRequests.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		if errors.Is(err, search.ErrInvalidRequest) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"results": results})
}
