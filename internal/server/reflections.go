package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lookbackhq/lookback/internal/runtime"
	"github.com/lookbackhq/lookback/internal/store"
)

type reflectionStore interface {
	CreateReflection(ctx context.Context, ownerID, title, content string, date time.Time) (int64, error)
	GetReflection(ctx context.Context, ownerID string, id int64) (store.Reflection, bool, error)
	ListReflections(ctx context.Context, ownerID string) ([]store.Reflection, error)
	UpdateReflection(ctx context.Context, ownerID string, id int64, title, content string, date time.Time) (bool, error)
	SoftDeleteReflection(ctx context.Context, ownerID string, id int64) (bool, error)
	TagsForReflection(ctx context.Context, id int64) ([]store.Tag, error)
}

type reflectionIndexer interface {
	IndexReflection(ctx context.Context, r store.Reflection, tags []string) bool
	RemoveReflection(ctx context.Context, id int64) bool
}

// ReflectionsHandler exposes reflection CRUD. Every write schedules a
// background vector index update that the request does not wait for.
type ReflectionsHandler struct {
	Store   reflectionStore
	Indexer reflectionIndexer
	Logger  *log.Logger
}

func NewReflectionsHandler(st reflectionStore, ix reflectionIndexer) *ReflectionsHandler {
	return &ReflectionsHandler{
		Store:   st,
		Indexer: ix,
		Logger:  log.New(log.Writer(), "[REFLECTIONS] ", log.LstdFlags),
	}
}

func (h *ReflectionsHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

func (h *ReflectionsHandler) create(c echo.Context) error {
	var req CreateReflectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}
	owner := userID(c)
	var date time.Time
	if req.ReflectionDate != nil {
		date = *req.ReflectionDate
	}
	id, err := h.Store.CreateReflection(c.Request().Context(), owner, req.Title, req.Content, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.scheduleIndex(owner, id)
	return c.JSON(http.StatusCreated, IDResponse{ID: id})
}

func (h *ReflectionsHandler) list(c echo.Context) error {
	rows, err := h.Store.ListReflections(c.Request().Context(), userID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *ReflectionsHandler) get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	r, found, err := h.Store.GetReflection(c.Request().Context(), userID(c), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "reflection not found")
	}
	tags, err := h.Store.TagsForReflection(c.Request().Context(), r.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reflection": r,
		"tags":       tags,
	})
}

func (h *ReflectionsHandler) update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateReflectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	owner := userID(c)
	var date time.Time
	if req.ReflectionDate != nil {
		date = *req.ReflectionDate
	}
	updated, err := h.Store.UpdateReflection(c.Request().Context(), owner, id, req.Title, req.Content, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "reflection not found")
	}
	h.scheduleIndex(owner, id)
	return c.NoContent(http.StatusOK)
}

func (h *ReflectionsHandler) remove(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	deleted, err := h.Store.SoftDeleteReflection(c.Request().Context(), userID(c), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "reflection not found")
	}
	if h.Indexer != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			ok := h.Indexer.RemoveReflection(ctx, id)
			reflectionIndexOps.WithLabelValues("delete", indexResultLabel(ok)).Inc()
		}()
	}
	return c.NoContent(http.StatusOK)
}

// scheduleIndex re-reads the stored row and refreshes its index entry off
// the request path.
func (h *ReflectionsHandler) scheduleIndex(owner string, id int64) {
	if h.Indexer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		r, found, err := h.Store.GetReflection(ctx, owner, id)
		if err != nil || !found {
			h.Logger.Printf("skipping index refresh for reflection %d: found=%v err=%v", id, found, err)
			reflectionIndexOps.WithLabelValues("upsert", "skipped").Inc()
			return
		}
		var tagNames []string
		tags, err := h.Store.TagsForReflection(ctx, r.ID)
		if err != nil {
			h.Logger.Printf("tag lookup failed for reflection %d, indexing without tags: %v", id, err)
		}
		for _, t := range tags {
			tagNames = append(tagNames, t.Name)
		}
		ok := h.Indexer.IndexReflection(ctx, r, tagNames)
		reflectionIndexOps.WithLabelValues("upsert", indexResultLabel(ok)).Inc()
	}()
}

func userID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok {
		return v
	}
	return ""
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
