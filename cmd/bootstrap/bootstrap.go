package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-appointment-service/config"
	deliveryHttp "clinic-appointment-service/internal/delivery/http"
	"clinic-appointment-service/internal/delivery/http/handler"
	"clinic-appointment-service/internal/delivery/http/middleware"
	"clinic-appointment-service/internal/infrastructure/cache"
	"clinic-appointment-service/internal/infrastructure/database"
	"clinic-appointment-service/internal/repository"
	"clinic-appointment-service/internal/service"
	"clinic-appointment-service/internal/usecase"
	"clinic-appointment-service/pkg/clock"
	"clinic-appointment-service/pkg/jwt"
	"clinic-appointment-service/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config          *config.Config
	DB              *gorm.DB
	RedisClient     *redis.Client
	ArchivalService *service.ArchivalService
	Server          *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Setup logger
	setupLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	logrus.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Apply schema migrations before serving traffic
	if err := database.RunMigrations(cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	// Initialize all layers
	server, archivalService, err := initializeServer(cfg, db, redisClient)
	if err != nil {
		return nil, err
	}
	app.Server = server
	app.ArchivalService = archivalService

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*http.Server, *service.ArchivalService, error) {
	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize logger and clock
	log := logrus.StandardLogger()
	clk := clock.System()

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	doctorProfileRepo := repository.NewDoctorProfileRepository()
	patientProfileRepo := repository.NewPatientProfileRepository()
	availabilityWindowRepo := repository.NewAvailabilityWindowRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	schedulingService := service.NewSchedulingService(db, log, clk, doctorProfileRepo, appointmentRepo)
	archivalService, err := service.NewArchivalService(db, log, clk, appointmentRepo, auditService, cfg.Sweep.RunAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create archival service: %w", err)
	}

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, doctorProfileRepo, patientProfileRepo, jwtService, redisClient)
	appointmentUsecase := usecase.NewAppointmentUsecase(db, log, clk, schedulingService, appointmentRepo, patientProfileRepo, auditService)
	availabilityUsecase := usecase.NewAvailabilityUsecase(db, log, availabilityWindowRepo, doctorProfileRepo, auditService)
	doctorProfileUsecase := usecase.NewDoctorProfileUsecase(db, log, userRepo, doctorProfileRepo)
	patientProfileUsecase := usecase.NewPatientProfileUsecase(db, log, patientProfileRepo)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator, jwtService)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, customValidator)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityUsecase, customValidator)
	doctorHandler := handler.NewDoctorHandler(doctorProfileUsecase, customValidator)
	patientHandler := handler.NewPatientHandler(patientProfileUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigin)

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler,
		appointmentHandler,
		availabilityHandler,
		doctorHandler,
		patientHandler,
		auditLogHandler,
		authMiddleware,
		corsMiddleware,
	)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: httpRouter,
	}

	return server, archivalService, nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Kick off the daily archival sweep
	app.ArchivalService.Start()

	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Stop background workers and close connections
	app.ArchivalService.Stop()
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
