package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"qacoverage.app/api-server/core/config"
	"qacoverage.app/api-server/core/db"
	"qacoverage.app/api-server/core/observability"
	"qacoverage.app/api-server/internal/http/handler"
	httprouter "qacoverage.app/api-server/internal/http/router"
	"qacoverage.app/api-server/internal/jenkins"
	"qacoverage.app/api-server/internal/jira"
	"qacoverage.app/api-server/internal/qtest"
	"qacoverage.app/api-server/internal/service"
	"qacoverage.app/api-server/internal/store"
)

const serviceName = "qacoverage-api-server"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	shutdownTelemetry, err := observability.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		os.Stderr.WriteString("failed to initialize telemetry: " + err.Error() + "\n")
		os.Exit(1)
	}

	slog.InfoContext(ctx, "starting", "env", cfg.Environment, "service", serviceName)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		slog.ErrorContext(ctx, "failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "database ready")

	stores := store.New(pool)
	if err := store.Seed(ctx, stores); err != nil {
		slog.ErrorContext(ctx, "failed to seed reference data", "error", err)
		os.Exit(1)
	}

	jiraClient := jira.NewClient(cfg.Jira)
	jenkinsClient := jenkins.NewClient(cfg.Jenkins)
	qtestSession := qtest.NewSessionManager(cfg.QTest, clockwork.NewRealClock())
	qtestClient := qtest.NewClient(cfg.QTest, qtestSession)

	manualPageService := service.NewManualPageService(jiraClient, qtestClient, stores)
	jenkinsService := service.NewJenkinsService(jenkinsClient, stores)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, manualPageService, jenkinsService)
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "addr", cfg.ServerAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "telemetry shutdown error", "error", err)
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg *config.Config, manualPage service.ManualPageService, jenkinsSvc service.JenkinsService) *gin.Engine {
	router := gin.New()

	if cfg.OTLPEndpoint != "" {
		router.Use(otelgin.Middleware(serviceName))
	}
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	api := router.Group("/api")
	httprouter.ManualPageRouter(api.Group("/manual-page"), handler.NewManualPageHandler(manualPage))
	httprouter.JenkinsRouter(api.Group("/jenkins"), handler.NewJenkinsHandler(jenkinsSvc))

	return router
}
