package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tillpoint/pos/internal/application/service"
	appsync "github.com/tillpoint/pos/internal/application/sync"
	"github.com/tillpoint/pos/internal/config"
	"github.com/tillpoint/pos/internal/infrastructure/database"
	"github.com/tillpoint/pos/internal/infrastructure/remote"
	"github.com/tillpoint/pos/internal/infrastructure/repository"
	"github.com/tillpoint/pos/internal/presentation/http/handler"
	"github.com/tillpoint/pos/internal/presentation/http/routes"
	"github.com/tillpoint/pos/pkg/email"
	"github.com/tillpoint/pos/pkg/printer"
	"github.com/tillpoint/pos/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the local record store
	db, err := database.NewSQLiteDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	shiftRepo := repository.NewCashDrawerRepository(db)
	userRepo := repository.NewDeviceUserRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	cursorRepo := repository.NewSyncCursorRepository(db)
	queueRepo := repository.NewPushQueueRepository(db)

	// Initialize the remote service gateway
	sessions := remote.NewCredentialStore(cfg.Remote.DeviceToken)
	gateway := remote.NewGateway(
		cfg.Remote.BaseURL,
		sessions.Creds,
		remote.WithTimeout(cfg.Remote.Timeout),
		remote.WithOnAuthExpired(sessions.ClearUser),
	)

	// Initialize the sync orchestrator
	orchestrator := appsync.NewOrchestrator(cfg.Sync, cursorRepo, queueRepo)
	if err := appsync.RegisterAll(orchestrator, db, gateway); err != nil {
		log.Fatalf("Failed to register sync entities: %v", err)
	}
	go orchestrator.Run(ctx)

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(cfg.Printer.Type, cfg.Printer.Address)
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = printer.NewNullPrinter()
	}
	printerService := service.NewPrinterService(
		thermalPrinter,
		orderRepo,
		userRepo,
		cfg.Printer.Type,
		cfg.App.Name,
		cfg.Printer.Width,
	)

	// Initialize email service
	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
	})

	// Receipt printing and emails run off the request path
	effects := service.NewEffectWorker(printerService, emailService)
	go effects.Run(ctx)

	// Initialize services
	shiftService := service.NewShiftService(shiftRepo, orderRepo, queueRepo, orchestrator)
	authService := service.NewAuthService(userRepo, settingsRepo, shiftService, jwtManager, cfg.Auth)
	catalogService := service.NewCatalogService(productRepo, categoryRepo)
	customerService := service.NewCustomerService(customerRepo, queueRepo, orchestrator)
	settingsService := service.NewSettingsService(settingsRepo, queueRepo, orchestrator)
	orderService := service.NewOrderService(
		db,
		orderRepo,
		productRepo,
		customerRepo,
		settingsRepo,
		shiftRepo,
		queueRepo,
		orchestrator,
		effects,
		cfg.Remote.DevicePrefix,
	)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:     handler.NewAuthHandler(authService, sessions),
		Catalog:  handler.NewCatalogHandler(catalogService),
		Order:    handler.NewOrderHandler(orderService),
		Customer: handler.NewCustomerHandler(customerService),
		Shift:    handler.NewShiftHandler(shiftService),
		Settings: handler.NewSettingsHandler(settingsService),
		Sync:     handler.NewSyncHandler(orchestrator, queueRepo, cursorRepo),
		Printer:  handler.NewPrinterHandler(printerService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
