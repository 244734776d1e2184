package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/yourusername/verification-mailer/internal/config"
	"github.com/yourusername/verification-mailer/internal/handler"
	"github.com/yourusername/verification-mailer/internal/middleware"
	"github.com/yourusername/verification-mailer/internal/pubsub"
	"github.com/yourusername/verification-mailer/internal/repository/gormrepo"
	"github.com/yourusername/verification-mailer/internal/service"
	"github.com/yourusername/verification-mailer/pkg/auth"
	"github.com/yourusername/verification-mailer/pkg/database"
)

func main() {
	// .env необязателен: в контейнере переменные задаются окружением
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}
	cfg.LogSummary()

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	if cfg.Database.Driver == "sqlite" {
		// для sqlite нет отдельного шага cmd/migrate
		if err := database.MigrateDB(db, cfg.Database.Driver); err != nil {
			log.Printf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
	}

	emailService, err := service.NewEmailServiceFromConfig(cfg.Email)
	if err != nil {
		log.Printf("Failed to create email service: %v", err)
		os.Exit(1)
	}

	issuer := service.NewVerificationIssuer(service.IssuerConfig{
		TTL:                   cfg.Verification.TTL,
		LinkScheme:            cfg.Verification.LinkScheme,
		LinkPort:              cfg.Verification.LinkPort,
		CompanyName:           cfg.Verification.CompanyName,
		From:                  cfg.FromAddress(),
		IncludeText:           cfg.Email.IncludeText,
		EmailTimeout:          cfg.Email.Timeout,
		QueryTimeout:          cfg.Database.QueryTimeout,
		PropagateDecodeErrors: cfg.Verification.PropagateDecodeErrors,
	}, emailService, gormrepo.NewStore(db))

	var pushAuth *middleware.PushAuthMiddleware
	if cfg.Push.AuthSecret != "" {
		tokens, err := auth.NewPushTokenService(cfg.Push.AuthSecret, cfg.Push.AuthAudience)
		if err != nil {
			log.Printf("Failed to create push token service: %v", err)
			os.Exit(1)
		}
		pushAuth = middleware.NewPushAuthMiddleware(tokens)
	} else {
		pushAuth = middleware.NewPushAuthMiddleware(nil)
	}

	router := handler.NewRouter(
		handler.RouterConfig{PushPath: cfg.Push.Path, AllowedOrigins: cfg.Server.AllowedOrigins},
		handler.NewPushHandler(issuer.HandleMessage),
		handler.NewHealthHandler(func(ctx context.Context) error { return database.Ping(ctx, db) }, 2*time.Second),
		pushAuth,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	if cfg.Redis.Enabled() {
		startRedisSubscriber(ctx, &wg, cfg.Redis, issuer.HandleMessage)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Останавливаем подписчика только после HTTP сервера, чтобы дообработать текущие сообщения
	cancel()
	wg.Wait()

	closeDB(db)
	log.Println("Server exited properly")
}

func startRedisSubscriber(ctx context.Context, wg *sync.WaitGroup, cfg config.RedisConfig, handle pubsub.MessageHandler) {
	client, err := database.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	subscriber, err := pubsub.NewRedisSubscriber(client, cfg.Channel)
	if err != nil {
		log.Printf("Failed to create Redis subscriber: %v", err)
		os.Exit(1)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer client.Close()
		if err := subscriber.Run(ctx, handle); err != nil {
			log.Printf("Redis subscriber stopped with error: %v", err)
		}
	}()
}

func closeDB(db *gorm.DB) {
	sqlDB, err := database.GetSQLDB(db)
	if err != nil {
		log.Printf("Error getting sql.DB: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}
