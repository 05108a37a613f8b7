package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/IlyadI/rec-sys-project-retail/internal/config"
	"github.com/IlyadI/rec-sys-project-retail/internal/db"
	dbRedis "github.com/IlyadI/rec-sys-project-retail/internal/db/redis"
	"github.com/IlyadI/rec-sys-project-retail/internal/index"
	logpkg "github.com/IlyadI/rec-sys-project-retail/internal/logger"
	"github.com/IlyadI/rec-sys-project-retail/internal/metrics"
	"github.com/IlyadI/rec-sys-project-retail/internal/repository/explcache"
	"github.com/IlyadI/rec-sys-project-retail/internal/repository/file"
	"github.com/IlyadI/rec-sys-project-retail/internal/repository/history"
	chiTransport "github.com/IlyadI/rec-sys-project-retail/internal/transport/chi"
	openaiChat "github.com/IlyadI/rec-sys-project-retail/internal/transport/openai"
	explainuc "github.com/IlyadI/rec-sys-project-retail/internal/usecase/explain"
	healthuc "github.com/IlyadI/rec-sys-project-retail/internal/usecase/health"
	recommenduc "github.com/IlyadI/rec-sys-project-retail/internal/usecase/recommend"
	"github.com/IlyadI/rec-sys-project-retail/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting retail recommender API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_path", cfg.Data.CatalogPath),
		zap.String("purchases_path", cfg.Data.PurchasesPath),
	)

	// Load the two startup documents. Any format error here is fatal: the
	// process must not start on a bad catalog.
	catalog, err := file.LoadCatalog(cfg.Data.CatalogPath)
	if err != nil {
		logger.Fatal("Failed to load product catalog", zap.Error(err))
	}

	purchases, err := file.LoadPurchases(cfg.Data.PurchasesPath)
	if err != nil {
		logger.Fatal("Failed to load purchase history", zap.Error(err))
	}

	historyStore := history.New(purchases)
	simIndex := index.Build(&catalog)

	logger.Info("Catalog loaded",
		zap.Int("products", catalog.Len()),
		zap.Int("embedding_dim", catalog.Dim()),
		zap.Int("users_with_purchases", len(historyStore.Users())),
	)

	metrics.RegisterExplanationMetrics()

	// Optional explanation cache — disabled when no cache addrs configured.
	var cacheStore db.Store
	if len(cfg.Cache.Addrs) > 0 {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		ctx := context.Background()
		if err := cacheStore.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to explanation cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	if cfg.LLM.APIKey == "" {
		logger.Warn("llm.api_key is not set; explanation generation will fail and degrade to empty strings")
	}

	chatClient := openaiChat.NewClient(&openaiChat.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: float32(cfg.LLM.Temperature),
		Provider:    "foundation-models",
		Logger:      logger,
	})

	// Pass nil interface (not typed nil pointer!) when the cache is disabled.
	var explCache explainuc.Cache
	if cacheStore != nil {
		explCache = explcache.New(
			cacheStore,
			cfg.Cache.KeyPrefix,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.ExplanationCacheTotal,
			logger,
		)
	}

	recSvc := recommenduc.New(&catalog, historyStore, simIndex)
	explSvc := explainuc.New(chatClient, explCache, cfg.LLM.Concurrency)

	var cachePinger healthuc.CachePinger
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	healthSvc := healthuc.New(&catalog, chatClient, cachePinger)

	server := chiTransport.NewServer(recSvc, explSvc, healthSvc, chiTransport.Limits{
		DefaultTopN:     cfg.Recommend.DefaultTopN,
		MaxTopN:         cfg.Recommend.MaxTopN,
		DefaultPageSize: cfg.Recommend.DefaultPageSize,
		MaxPageSize:     cfg.Recommend.MaxPageSize,
		HistoryLimit:    cfg.Recommend.HistoryLimit,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
