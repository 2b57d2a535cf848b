package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/api"
	"github.com/Nikkie2411/pedmedvn-sub000/internal/api/handlers"
	"github.com/Nikkie2411/pedmedvn-sub000/internal/pipeline"
	"github.com/Nikkie2411/pedmedvn-sub000/internal/repository"
	"github.com/Nikkie2411/pedmedvn-sub000/internal/service"
	"github.com/Nikkie2411/pedmedvn-sub000/pkg/auth"
	"github.com/Nikkie2411/pedmedvn-sub000/pkg/config"
	"github.com/Nikkie2411/pedmedvn-sub000/pkg/logger"
	"github.com/Nikkie2411/pedmedvn-sub000/pkg/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting PedMed drug lookup service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	deviceRepo := repository.NewDeviceRepository(db, appLogger)
	resetRepo := repository.NewPasswordResetRepository(db, appLogger)
	drugRepo := repository.NewDrugRepository(db, appLogger)
	chatRepo := repository.NewChatLogRepository(db, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Services
	mailer := service.NewLogMailer(appLogger)
	authService := service.NewAuthService(userRepo, deviceRepo, resetRepo, jwtManager, mailer, &cfg.Auth, appLogger)

	catalogService := service.NewCatalogService(drugRepo, &cfg.Catalog, appLogger)
	if err := catalogService.Refresh(ctx); err != nil {
		appLogger.Fatal("Failed to load drug catalog", zap.Error(err))
	}
	go catalogService.Run(ctx)

	// The generative backend is optional: without an API key every answer is
	// served deterministically.
	var backend pipeline.GenerativeBackend
	if cfg.GigaChat.APIKey != "" {
		llmService, err := service.NewLLMService(&cfg.GigaChat, appLogger)
		if err != nil {
			appLogger.Warn("Generative backend unavailable, answers stay deterministic", zap.Error(err))
		} else {
			defer llmService.Close()
			backend = llmService
		}
	} else {
		appLogger.Info("No GigaChat API key configured, answers stay deterministic")
	}

	chatService := service.NewChatService(catalogService, chatRepo, backend, &cfg.Pipeline, appLogger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	chatHandler := handlers.NewChatHandler(chatService, appLogger)

	app := api.SetupRouter(authHandler, chatHandler, jwtManager, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	cancel()
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
