package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/session-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/session-analyzer/internal/application/sessions"
	"github.com/bryanwahyu/session-analyzer/internal/config"
	"github.com/bryanwahyu/session-analyzer/internal/domain/session"
	openaiclient "github.com/bryanwahyu/session-analyzer/internal/infra/ai/openai"
	"github.com/bryanwahyu/session-analyzer/internal/infra/ai/prompt"
	mysqlp "github.com/bryanwahyu/session-analyzer/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/session-analyzer/internal/infra/db/postgres"
	"github.com/bryanwahyu/session-analyzer/internal/infra/httpserver"
	"github.com/bryanwahyu/session-analyzer/internal/infra/media"
	"github.com/bryanwahyu/session-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/session-analyzer/internal/logging"
	"github.com/bryanwahyu/session-analyzer/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Dir)
	if err != nil {
		log.Fatalf("logging init error: %v", err)
	}

	ctx := context.Background()

	// local session store is the source of truth
	store, err := storage.NewLocal(cfg.Storage.Dir)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	checkers := map[string]middleware.HealthChecker{
		"storage": &middleware.StorageHealthChecker{Dir: cfg.Storage.Dir},
	}

	// optional SQL session index
	var repo session.Repository
	var db *sql.DB
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		repo = mysqlp.NewSessionRepository(db)
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		repo = postgresp.NewSessionRepository(db)
	case "":
		// index disabled, reports live on disk only
	default:
		log.Fatalf("unknown database driver: %s", cfg.Database.Driver)
	}
	if db != nil {
		defer db.Close()
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// optional MinIO archive
	var archive session.ArchiveStore
	if cfg.Minio.Enabled {
		m, err := storage.NewMinio(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		archive = m
	}

	client := openaiclient.NewClient(cfg.AI.APIKey, cfg.AI.Model)

	pipeline := &analysis.Pipeline{
		Client:         client,
		Gate:           analysis.NewGate(cfg.AI.MaxConcurrent),
		Timeout:        cfg.AITimeout(),
		SystemPrompt:   prompt.GetSystemPrompt(),
		FallbackPrompt: prompt.GetFallbackPrompt(),
	}

	svc := &sessions.Service{
		Pipeline: pipeline,
		Store:    store,
		Repo:     repo,
		Archive:  archive,
		Prober:   media.NewProber(cfg.Storage.FFprobeBinary),
		Clock:    sessions.SystemClock{},
	}

	handler := httpserver.NewRouter(svc, logger, cfg.AI.Model, httpserver.Options{
		APIKeys:        cfg.Auth.APIKeys,
		RateCapacity:   cfg.RateLimit.Capacity,
		RateRefill:     cfg.RateLimit.RefillRate,
		HealthCheckers: checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: time.Duration(cfg.AI.TimeoutSeconds+60) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server_listening", "addr", addr, "model", cfg.AI.Model, "max_concurrent", cfg.AI.MaxConcurrent)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("server_shutting_down")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown_error", "error", err)
	}
}
