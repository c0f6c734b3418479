package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	metrics "github.com/slok/go-http-metrics/metrics/prometheus"
	metricsmiddleware "github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/manga-content/pkg/mangacontent/api"
	"github.com/tendant/manga-content/pkg/mangacontent/config"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(serverConfig)
	slog.SetDefault(logger)

	ctx := context.Background()
	rt, err := serverConfig.Build(ctx, logger)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}
	defer rt.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           routes(serverConfig, rt),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Manga content server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database", databaseKind(serverConfig),
			"storage_url", serverConfig.StorageURL)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
	}

	slog.Info("Server exiting")
}

func newLogger(cfg *config.ServerConfig) *slog.Logger {
	if cfg.IsDevelopment() {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.SlogLevel(),
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func routes(cfg *config.ServerConfig, rt *config.Runtime) http.Handler {
	r := chi.NewRouter()

	requestLogger := httplog.NewLogger("manga-content", httplog.Options{
		JSON:     !cfg.IsDevelopment(),
		LogLevel: cfg.SlogLevel(),
		Concise:  true,
	})
	mdlw := metricsmiddleware.New(metricsmiddleware.Config{
		Recorder: metrics.NewRecorder(metrics.Config{}),
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(requestLogger, []string{"/healthz", "/healthz/ready", "/metrics"}))
	r.Use(middleware.Recoverer)
	r.Use(std.HandlerProvider("", mdlw))

	app.RoutesHealthz(r)
	r.Get("/healthz/ready", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.Ready(ctx); err != nil {
			slog.Warn("Readiness check failed", "err", err)
			render.Status(req, http.StatusServiceUnavailable)
			render.PlainText(w, req, http.StatusText(http.StatusServiceUnavailable))
			return
		}
		render.PlainText(w, req, http.StatusText(http.StatusOK))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.With(timeoutExceptStreams(cfg.RequestTimeout)).Mount("/", api.NewRouter(rt.Service, rt.Auth))

	return r
}

// timeoutExceptStreams applies middleware.Timeout to every request except
// cover and file streams, which end when the client disconnects.
func timeoutExceptStreams(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		bounded := middleware.Timeout(timeout)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if api.IsStreamRequest(r) {
				next.ServeHTTP(w, r)
				return
			}
			bounded.ServeHTTP(w, r)
		})
	}
}

func databaseKind(cfg *config.ServerConfig) string {
	if cfg.UsesPostgres() {
		return "postgres"
	}
	return "memory"
}
