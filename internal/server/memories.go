package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lookbackhq/lookback/config"
	"github.com/lookbackhq/lookback/internal/memory"
	"github.com/lookbackhq/lookback/internal/runtime"
)

type memoryService interface {
	List(ctx context.Context, ownerID string, limit int) ([]memory.Entry, error)
	Create(ctx context.Context, ownerID, memoryType, text string, metadata map[string]interface{}) (*memory.Entry, error)
}

// MemoriesHandler exposes the append-only AI memory log.
type MemoriesHandler struct {
	Service memoryService
	Limits  config.MemoryConfig
}

func (h *MemoriesHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.GET("", h.list)
	g.POST("", h.create)
}

func (h *MemoriesHandler) list(c echo.Context) error {
	limits := h.Limits.Normalize()
	limit := limits.ContextLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	if limit > limits.MaxListLimit {
		limit = limits.MaxListLimit
	}
	entries, err := h.Service.List(c.Request().Context(), userID(c), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *MemoriesHandler) create(c echo.Context) error {
	var req CreateMemoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.MemoryType == "" || req.Memory == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "memory_type and memory are required")
	}
	entry, err := h.Service.Create(c.Request().Context(), userID(c), req.MemoryType, req.Memory, req.Metadata)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, entry)
}
