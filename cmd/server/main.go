// Package main is the application entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diegopaiva1/file-search-poc/internal/config"
	"github.com/diegopaiva1/file-search-poc/internal/handler"
	"github.com/diegopaiva1/file-search-poc/internal/middleware"
	"github.com/diegopaiva1/file-search-poc/internal/model"
	"github.com/diegopaiva1/file-search-poc/internal/pipeline"
	"github.com/diegopaiva1/file-search-poc/internal/repository"
	"github.com/diegopaiva1/file-search-poc/internal/service"
	"github.com/diegopaiva1/file-search-poc/pkg/database"
	"github.com/diegopaiva1/file-search-poc/pkg/es"
	"github.com/diegopaiva1/file-search-poc/pkg/extract"
	"github.com/diegopaiva1/file-search-poc/pkg/kafka"
	"github.com/diegopaiva1/file-search-poc/pkg/log"
	"github.com/diegopaiva1/file-search-poc/pkg/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Configuration; a missing required setting aborts startup.
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. Logger.
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("logger initialized successfully")

	// 3. Infrastructure clients.
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(&model.File{}, &model.FileProcessingJob{}); err != nil {
		log.Fatal("failed to migrate database schema", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Fatal("failed to initialize Elasticsearch", err)
	}
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	// 4. Dependency wiring.
	fileRepo := repository.NewFileRepository(database.DB)
	blobStore := storage.NewMinioStore(storage.MinioClient, cfg.MinIO.BucketName)
	fileIndex := es.NewFileIndex(es.ESClient, cfg.Elasticsearch.IndexName)
	extractor := newExtractor(cfg.Extractor)

	fileService := service.NewFileService(fileRepo, blobStore, producer, fileIndex)
	searchService := service.NewSearchService(fileIndex, fileRepo)

	// 5. Background extraction worker fed by the Kafka consumer.
	extractTimeout := time.Duration(cfg.Extractor.TimeoutSeconds) * time.Second
	processor := pipeline.NewProcessor(fileRepo, blobStore, extractor, fileIndex, extractTimeout)
	go kafka.StartConsumer(cfg.Kafka, database.RDB, processor)

	// 6. Router.
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	apiV1 := r.Group("/api/v1")
	{
		files := apiV1.Group("/files")
		{
			fileHandler := handler.NewFileHandler(fileService)
			files.POST("/upload", fileHandler.Upload)
			files.GET("/search", handler.NewSearchHandler(searchService).Search)
			files.GET("", fileHandler.List)
			files.GET("/:id", fileHandler.Get)
			files.GET("/:id/download", fileHandler.Download)
			files.DELETE("/:id", fileHandler.Delete)
		}
	}

	// 7. HTTP server with graceful shutdown.
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}

	log.Info("server stopped gracefully")
}

// newExtractor picks the extraction backend from configuration.
func newExtractor(cfg config.ExtractorConfig) extract.Extractor {
	if cfg.Mode == "tika" {
		log.Infof("using Tika text extractor at %s", cfg.TikaServerURL)
		return extract.NewTika(cfg.TikaServerURL)
	}
	log.Info("using native text extractor")
	return extract.NewNative()
}
