package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/vidshelf/backend/internal/config"
	"github.com/vidshelf/backend/internal/database"
	"github.com/vidshelf/backend/internal/filehost"
	"github.com/vidshelf/backend/internal/handlers"
	"github.com/vidshelf/backend/internal/middleware"
	"github.com/vidshelf/backend/internal/services"
	"github.com/vidshelf/backend/internal/storage"
	"github.com/vidshelf/backend/pkg/logger"
	"github.com/vidshelf/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)
	utils.ConfigureEncryption(cfg.Security.EncryptionSecret)
	if cfg.Security.EncryptionSecret == "" {
		logger.Warn("settings_encryption_disabled", map[string]interface{}{
			"hint": "set SETTINGS_ENCRYPTION_SECRET to encrypt stored credentials",
		})
	}

	db, err := database.Connect(cfg.DB, cfg.Seed)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	var thumbnails *services.ThumbnailMirror
	if cfg.MinIO.Enabled {
		storageClient, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("minio initialization failed: %v", err)
		}
		if err := storageClient.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("failed ensuring minio bucket: %v", err)
		}
		thumbnails = services.NewThumbnailMirror(storageClient)
	}

	activityService := services.NewActivityService(db, cfg.Activity.QueueSize)
	defer activityService.Close()

	settingsService := services.NewSettingsService(db, cfg.FileHost, cfg.Telegram)
	host := filehost.NewClient(settingsService, cfg.FileHost.Timeout)

	accessService := services.NewAccessService(db)
	tombstoneService := services.NewTombstoneService(db)
	libraryService := services.NewLibraryService(db, host, accessService, tombstoneService, cfg.FileHost)
	videoService := services.NewVideoService(db, host, activityService, thumbnails, cfg.FileHost.UploadBatchSize)
	folderService := services.NewFolderService(db, host, accessService, activityService)
	shareService := services.NewShareService(db, activityService)
	syncService := services.NewSyncService(db, host, activityService, cfg.FileHost.UploadGrace)
	postService := services.NewPostService(db, settingsService, activityService, cfg.Telegram.APIURL)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: cfg.BodyLimitBytes()})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	handlers.RegisterRoutes(app, handlers.Handlers{
		Auth:     handlers.NewAuthHandler(db, activityService),
		Users:    handlers.NewUsersHandler(db),
		Folders:  handlers.NewFoldersHandler(folderService),
		Videos:   handlers.NewVideosHandler(libraryService, videoService),
		Sync:     handlers.NewSyncHandler(syncService),
		Shares:   handlers.NewSharesHandler(shareService),
		Posts:    handlers.NewPostsHandler(postService),
		Settings: handlers.NewSettingsHandler(settingsService),
		Activity: handlers.NewActivityHandler(activityService),
	}, authMiddleware)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":             cfg.Server.Port,
		"address":          listenAddr,
		"body_limit_mb":    cfg.Server.BodyLimitMB,
		"listing_strategy": cfg.FileHost.ListingStrategy,
		"thumbnail_mirror": cfg.MinIO.Enabled,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			activityService.Close()
			log.Fatalf("server error: %v", err)
		}
	}
}
