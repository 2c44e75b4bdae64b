package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/lookbackhq/lookback/config"
	"github.com/lookbackhq/lookback/internal/ai"
	"github.com/lookbackhq/lookback/internal/coach"
	"github.com/lookbackhq/lookback/internal/index"
	"github.com/lookbackhq/lookback/internal/memory"
	"github.com/lookbackhq/lookback/internal/runtime"
	"github.com/lookbackhq/lookback/internal/search"
	"github.com/lookbackhq/lookback/internal/store"
)

// Run wires the full service and starts the HTTP listener.
func Run(cfg *config.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if err := cfg.Server.Validate(); err != nil {
		return err
	}
	if err := cfg.LLM.Validate(); err != nil {
		return err
	}
	if err := cfg.Storage.Postgres.Validate(); err != nil {
		return err
	}
	if err := cfg.Storage.Redis.Validate(); err != nil {
		return err
	}
	secret := []byte(cfg.Server.JWTSecret)

	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return err
	}
	if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil {
		log.Printf("migrations: %v", err)
	}

	var rdb *redis.Client
	if cfg.Storage.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s:%s): %w",
				cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
		}
	}

	provider := ai.NewOpenAIProvider(cfg.LLM.Provider)
	gateway := ai.NewGateway(provider, cfg.LLM.EmbeddingModel)
	analyzer := ai.NewAnalyzer(provider, cfg.LLM.AnalysisModel)

	searchCfg := cfg.Search.Normalize()
	vectorIdx := index.NewPgVector(st)
	indexer := index.NewIndexer(gateway, vectorIdx, searchCfg.SnippetLength)
	searchSvc := search.NewService(gateway, vectorIdx, st,
		searchCfg.DefaultTopK, searchCfg.MaxTopK, searchCfg.SnippetLength)

	memories := memory.NewAggregator(st, rdb, cfg.Storage.Redis.CacheTTL)
	coachSvc := coach.NewService(st, memories, analyzer, st, cfg.Coach)
	chatSvc := coach.NewChatService(provider, cfg.LLM.ChatModel, searchSvc, st, memories, cfg.Coach)

	api := e.Group("/api")
	auth := &AuthHandler{Store: st, Secret: secret}
	auth.Register(api.Group("/auth"))

	me := api.Group("/me")
	me.Use(runtime.EchoAuthMiddleware(secret))
	me.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, MeResponse{UserID: userID(c)})
	})

	rh := NewReflectionsHandler(st, indexer)
	rh.Register(api.Group("/reflections"), secret)

	th := &TagsHandler{Store: st}
	th.Register(api.Group("/tags"), secret)
	th.RegisterReflectionRoutes(api.Group("/reflection-tags"), secret)

	sh := &SearchHandler{Service: searchSvc}
	sh.Register(api.Group("/search"), secret)

	mh := &MemoriesHandler{Service: memories, Limits: cfg.Memory}
	mh.Register(api.Group("/memories"), secret)

	ch := &CoachHandler{Service: coachSvc, Analyses: st}
	ch.Register(api.Group("/coach"), secret)

	ah := &AIHandler{Analyzer: analyzer}
	ah.Register(api.Group("/ai"), secret)

	cth := &ChatHandler{Service: chatSvc}
	cth.Register(api.Group("/chat"), secret)

	anh := &AnalyticsHandler{Store: st}
	anh.Register(api.Group("/analytics"), secret)

	if addr == "" {
		addr = cfg.Server.Address
		if addr == "" {
			addr = ":10010"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
