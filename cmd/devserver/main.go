package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourdesk/internal/api"
	"tourdesk/internal/config"
	"tourdesk/internal/email"
	"tourdesk/internal/logger"
	"tourdesk/internal/server"
	"tourdesk/internal/storage"
	"tourdesk/internal/store"

	_ "github.com/joho/godotenv/autoload"
)

func gracefulShutdown(apiServer *http.Server, log *slog.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 5 seconds to finish the requests it is handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Info("Server exiting")
	done <- true
}

func main() {
	log := logger.New(os.Stdout, logger.FormatJSON)
	logger.SetDefault(log)
	api.InstallTracePropagation()

	cfg := server.LoadConfigFromEnv()
	log.Info("Starting tour sandbox server", slog.Int("port", cfg.Port))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var db store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("Failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		db = pg
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		db = store.NewMemory()
	}
	defer db.Close()

	var files storage.Service
	var err error
	if s3cfg, ok := storage.S3ConfigFromEnv(); ok {
		files, err = storage.NewS3(ctx, s3cfg, log)
		if err == nil {
			log.Info("Storage: S3", slog.String("bucket", s3cfg.Bucket))
		}
	} else {
		files, err = storage.NewDisk(cfg.UploadDir)
		if err == nil {
			log.Info("Storage: local disk", slog.String("dir", cfg.UploadDir))
		}
	}
	if err != nil {
		// uploads answer 503 without storage; everything else keeps working
		log.Warn("Failed to initialize storage service", slog.Any("error", err))
		files = nil
	}

	mailCfg := email.NewConfig()
	if mailCfg.Mode == email.ModeSMTP {
		if err := config.ValidateEnv([]string{"SMTP_HOST", "SMTP_USER", "SMTP_PASSWORD"}); err != nil {
			log.Error("SMTP mode is not configured", slog.Any("error", err))
			os.Exit(1)
		}
	}
	mailer := email.NewSender(mailCfg, log)
	log.Info("Email sender configured", slog.String("mode", mailCfg.Mode))

	srv := server.New(cfg, server.Deps{
		Store:   db,
		Storage: files,
		Mailer:  mailer,
		Logger:  log,
	})
	apiServer := server.NewHTTPServer(cfg, srv)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, log, done)

	log.Info("Sandbox server listening", slog.String("addr", apiServer.Addr))
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	log.Info("Graceful shutdown complete.")
}
