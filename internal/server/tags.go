package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"

	"github.com/lookbackhq/lookback/internal/runtime"
	"github.com/lookbackhq/lookback/internal/store"
)

type tagStore interface {
	ListTags(ctx context.Context) ([]store.Tag, error)
	CreateTag(ctx context.Context, name string) (int64, error)
	TagsForReflection(ctx context.Context, reflectionID int64) ([]store.Tag, error)
	AttachTag(ctx context.Context, reflectionID, tagID int64) error
	DetachTag(ctx context.Context, reflectionID, tagID int64) (bool, error)
	GetReflection(ctx context.Context, ownerID string, id int64) (store.Reflection, bool, error)
}

// TagsHandler manages the tag catalog and reflection-tag attachments.
type TagsHandler struct {
	Store tagStore
}

func (h *TagsHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.GET("", h.list)
	g.POST("", h.create)
}

// RegisterReflectionRoutes mounts the attachment endpoints under a
// reflection-scoped group.
func (h *TagsHandler) RegisterReflectionRoutes(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.GET("/:id/tags", h.listForReflection)
	g.POST("/:id/tags/:tagId", h.attach)
	g.DELETE("/:id/tags/:tagId", h.detach)
}

func (h *TagsHandler) list(c echo.Context) error {
	tags, err := h.Store.ListTags(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *TagsHandler) create(c echo.Context) error {
	var req CreateTagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	id, err := h.Store.CreateTag(c.Request().Context(), req.Name)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return echo.NewHTTPError(http.StatusConflict, "tag already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, IDResponse{ID: id})
}

func (h *TagsHandler) listForReflection(c echo.Context) error {
	id, err := h.ownedReflection(c)
	if err != nil {
		return err
	}
	tags, err := h.Store.TagsForReflection(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *TagsHandler) attach(c echo.Context) error {
	id, err := h.ownedReflection(c)
	if err != nil {
		return err
	}
	tagID, err := strconv.ParseInt(c.Param("tagId"), 10, 64)
	if err != nil || tagID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tag id")
	}
	if err := h.Store.AttachTag(c.Request().Context(), id, tagID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusCreated)
}

func (h *TagsHandler) detach(c echo.Context) error {
	id, err := h.ownedReflection(c)
	if err != nil {
		return err
	}
	tagID, err := strconv.ParseInt(c.Param("tagId"), 10, 64)
	if err != nil || tagID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tag id")
	}
	removed, err := h.Store.DetachTag(c.Request().Context(), id, tagID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "tag not attached")
	}
	return c.NoContent(http.StatusOK)
}

// ownedReflection checks the path reflection belongs to the caller.
func (h *TagsHandler) ownedReflection(c echo.Context) (int64, error) {
	id, err := pathID(c)
	if err != nil {
		return 0, err
	}
	_, found, err := h.Store.GetReflection(c.Request().Context(), userID(c), id)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return 0, echo.NewHTTPError(http.StatusNotFound, "reflection not found")
	}
	return id, nil
}
