package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lookbackhq/lookback/internal/coach"
	"github.com/lookbackhq/lookback/internal/runtime"
)

type chatService interface {
	Chat(ctx context.Context, req coach.ChatRequest) (*coach.ChatResponse, error)
}

// ChatHandler answers questions grounded in the caller's reflections.
type ChatHandler struct {
	Service chatService
}

func (h *ChatHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.POST("", h.chat)
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp, err := h.Service.Chat(c.Request().Context(), coach.ChatRequest{
		OwnerID:    userID(c),
		Message:    req.Message,
		References: req.References,
		TopK:       req.TopK,
	})
	chatRequests.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		if errors.Is(err, coach.ErrInvalidRequest) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}
