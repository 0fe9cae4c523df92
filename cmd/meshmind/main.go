package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/meshmind/meshmind/internal/ai"
	"github.com/meshmind/meshmind/internal/config"
	"github.com/meshmind/meshmind/internal/db"
	"github.com/meshmind/meshmind/internal/embedcache"
	"github.com/meshmind/meshmind/internal/filestore"
	"github.com/meshmind/meshmind/internal/handler"
	"github.com/meshmind/meshmind/internal/job"
	"github.com/meshmind/meshmind/internal/middleware"
	"github.com/meshmind/meshmind/internal/queue"
	"github.com/meshmind/meshmind/internal/repo"
	"github.com/meshmind/meshmind/internal/schedule"
	"github.com/meshmind/meshmind/internal/service"
	"github.com/meshmind/meshmind/internal/worker"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "meshmind",
		Short: "meshmind rag backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run meshmind server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("queue", cfg.Queue.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	docRepo := repo.NewDocumentRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)
	jobRepo := repo.NewJobRepo(conn)
	graphRepo := repo.NewGraphRepo(conn)
	chatRepo := repo.NewChatHistoryRepo(conn)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	q, err := queue.New(cfg.Queue)
	if err != nil {
		return fmt.Errorf("init queue: %w", err)
	}
	defer q.Close()

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.AI.ChatModel)
	embedder := ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, embedCacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, 2048, 30*time.Minute)
	aiManager := ai.NewManager(generator, embedder, ai.ManagerConfig{
		Timeout:       cfg.AI.Timeout,
		MaxInputChars: cfg.AI.MaxInputChars,
	})

	ingestService := service.NewIngestService(docRepo, jobRepo, chunkRepo, graphRepo, store, q, aiManager, cfg.Ingest)
	searchService := service.NewSearchService(chunkRepo, aiManager, cfg.Retrieval)
	chatService := service.NewChatService(docRepo, chatRepo, searchService, aiManager)
	graphService := service.NewGraphService(docRepo, graphRepo)

	deps := handler.RouterDeps{
		Documents:  handler.NewDocumentHandler(ingestService, cfg.Ingest.MaxUploadSize),
		Query:      handler.NewQueryHandler(searchService, chatService),
		Graph:      handler.NewGraphHandler(graphService),
		Health:     handler.NewHealthHandler(conn, q, store),
		JWTSecret:  []byte(cfg.JWTSecret),
		RateWindow: time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORS),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ingestWorker := worker.New(q, ingestService, cfg.Ingest.Workers)
	ingestWorker.Start(ctx)

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewStaleJobCleanup(jobRepo, cfg.Cleanup.JobMaxAgeHours), "*/10 * * * *"); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewChatHistoryCleanupJob(chatRepo, cfg.Cleanup.ChatKeepDays), "30 3 * * *"); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(embedCacheRepo, cfg.Cleanup.EmbedCacheKeepDays), "0 4 * * *"); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	ingestWorker.Wait()
	return nil
}
