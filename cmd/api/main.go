package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	appanalysis "github.com/contentedge/insight/internal/application/analysis"
	"github.com/contentedge/insight/internal/config"
	domain "github.com/contentedge/insight/internal/domain/analysis"
	aiopenai "github.com/contentedge/insight/internal/infra/ai/openai"
	"github.com/contentedge/insight/internal/infra/ai/vertex"
	mysqldb "github.com/contentedge/insight/internal/infra/db/mysql"
	postgresdb "github.com/contentedge/insight/internal/infra/db/postgres"
	"github.com/contentedge/insight/internal/infra/httpserver"
	"github.com/contentedge/insight/internal/infra/storage"
	"github.com/contentedge/insight/internal/middleware"
	"github.com/contentedge/insight/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	// connect database, pick repo flavor
	var repo domain.Repository
	var checkers = map[string]middleware.HealthChecker{}
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Fatal("postgres connect error", zap.Error(err))
		}
		defer db.Close()
		repo = postgresdb.NewAnalysisRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	default:
		db, err := mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Fatal("mysql connect error", zap.Error(err))
		}
		defer db.Close()
		repo = mysqldb.NewAnalysisRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// init AI provider
	var provider domain.Provider
	switch cfg.AI.Provider {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			logger.Fatal("OPENAI_API_KEY is not set")
		}
		provider = aiopenai.NewClient(key, cfg.AI.TextModel, cfg.AI.EmbedModel)
	default:
		keyJSON := os.Getenv("GOOGLE_CLOUD_KEY")
		if keyJSON == "" {
			logger.Fatal("GOOGLE_CLOUD_KEY is not set")
		}
		provider, err = vertex.NewClient(ctx, []byte(keyJSON), vertex.Config{
			Location:    cfg.AI.Location,
			TextModel:   cfg.AI.TextModel,
			VisionModel: cfg.AI.VisionModel,
			EmbedModel:  cfg.AI.EmbedModel,
		})
		if err != nil {
			logger.Fatal("vertex client init error", zap.Error(err))
		}
	}

	// optional audit store
	var artifacts domain.ArtifactStore
	if cfg.Audit.Endpoint != "" {
		store, err := storage.New(ctx,
			cfg.Audit.Endpoint,
			cfg.Audit.Region,
			cfg.Audit.BucketName,
			cfg.Audit.AccessKey,
			cfg.Audit.SecretKey,
			cfg.Audit.UseSSL,
		)
		if err != nil {
			logger.Fatal("audit store init error", zap.Error(err))
		}
		artifacts = store
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Warn("JWT_SECRET not set; bearer tokens will not be signature-verified")
	}

	svc := &appanalysis.Service{
		Repo:      repo,
		Provider:  provider,
		Artifacts: artifacts,
		Media: appanalysis.MediaRefs{
			FrameURLs: cfg.Media.FrameURLs,
			AudioURI:  cfg.Media.AudioURI,
		},
		Clock: appanalysis.SystemClock{},
		Log:   logger,
	}

	sched, err := scheduler.New(svc, cfg.Trends.Schedule, cfg.Trends.WindowDays, logger)
	if err != nil {
		logger.Fatal("scheduler init error", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	handler := httpserver.NewRouter(svc, logger, httpserver.Options{
		JWTSecret:      jwtSecret,
		RateCapacity:   cfg.RateLimit.Capacity,
		RateRefillRate: cfg.RateLimit.RefillRate,
		HealthCheckers: checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No write timeout: model calls can run long and the contract has no
		// server-side deadline; the client connection is the only abort path.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
