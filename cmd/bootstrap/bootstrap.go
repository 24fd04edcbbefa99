package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"clinic-orchestrator/config"
	deliveryHttp "clinic-orchestrator/internal/delivery/http"
	"clinic-orchestrator/internal/delivery/http/handler"
	"clinic-orchestrator/internal/delivery/http/middleware"
	domainRepo "clinic-orchestrator/internal/domain/repository"
	"clinic-orchestrator/internal/domain/window"
	"clinic-orchestrator/internal/infrastructure/cache"
	"clinic-orchestrator/internal/infrastructure/database"
	"clinic-orchestrator/internal/infrastructure/schedule"
	"clinic-orchestrator/internal/repository"
	"clinic-orchestrator/internal/service"
	"clinic-orchestrator/internal/usecase"
	"clinic-orchestrator/pkg/jwt"
	"clinic-orchestrator/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)


// Repositories are the gorm-backed stores shared by usecases and CLI commands.
type Repositories struct {
	User          domainRepo.UserRepository
	Role          domainRepo.RoleRepository
	DoctorProfile domainRepo.DoctorProfileRepository
	ClinicService domainRepo.ClinicServiceRepository
	DoctorShift   domainRepo.DoctorShiftRepository
	Appointment   domainRepo.AppointmentRepository
	LabRequest    domainRepo.LabRequestRepository
	AuditLog      domainRepo.AuditLogRepository
}

// Usecases are the application operations, wired once per process.
type Usecases struct {
	Slot          usecase.SlotUsecase
	Appointment   usecase.AppointmentUsecase
	LabRequest    usecase.LabRequestUsecase
	VideoSession  usecase.VideoSessionUsecase
	ClinicService usecase.ClinicServiceUsecase
	DoctorShift   usecase.DoctorShiftUsecase
	Doctor        usecase.DoctorUsecase
	AuditLog      usecase.AuditLogUsecase
}

// App holds all dependencies for the application
type App struct {
	Config       *config.Config
	Log          *logrus.Logger
	DB           *gorm.DB
	RedisClient  *redis.Client
	JWT          *jwt.JWTService
	Repositories Repositories
	Usecases     Usecases
	EventHub     *service.EventHub
	Server       *http.Server

	workers sync.WaitGroup
}

// LoadConfig reads configuration and configures the shared logger.
func LoadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, setupLogger(cfg.App.LogLevel), nil
}

// New creates a new App instance with all dependencies initialized
func New(ctx context.Context) (*App, error) {
	cfg, log, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Log: log}
	log.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	if err := app.initialize(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(level string) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

// initialize wires repositories, services, usecases and the HTTP server.
func (app *App) initialize() error {
	cfg, log, db := app.Config, app.Log, app.DB
	loc := cfg.App.Location()
	clock := window.SystemClock()
	policy := window.Policy{
		CheckInLead:   cfg.Clinic.CheckInLead,
		CancelCutoff:  cfg.Clinic.CancelCutoff,
		VideoJoinLead: cfg.Clinic.VideoJoinLead,
	}

	app.JWT = jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	// Initialize repositories
	app.Repositories = Repositories{
		User:          repository.NewUserRepository(db),
		Role:          repository.NewRoleRepository(db),
		DoctorProfile: repository.NewDoctorProfileRepository(db),
		ClinicService: repository.NewClinicServiceRepository(db),
		DoctorShift:   repository.NewDoctorShiftRepository(db),
		Appointment:   repository.NewAppointmentRepository(db),
		LabRequest:    repository.NewLabRequestRepository(db),
		AuditLog:      repository.NewAuditLogRepository(),
	}
	repos := app.Repositories

	scheduleProvider, err := schedule.NewProvider(cfg.Schedule, repos.DoctorShift, loc, log)
	if err != nil {
		return fmt.Errorf("failed to init schedule provider: %w", err)
	}

	// Initialize services
	auditService := service.NewAuditService(db, log, repos.AuditLog)
	notifier, err := service.NewNotificationDispatcher(cfg.Notify, app.RedisClient, log)
	if err != nil {
		return fmt.Errorf("failed to init notification dispatcher: %w", err)
	}
	app.EventHub = service.NewEventHub(auditService, notifier, cfg.Notify.Timeout, log)
	slotLocker := service.NewSlotLockService(app.RedisClient, cfg.Clinic.BookingLockTTL, log)
	credentialStore := service.NewRedisCredentialStore(app.RedisClient)
	sessionSigner := jwt.NewSessionSigner(cfg.Video.AppID, cfg.Video.Secret)

	// Initialize usecases
	slotUsecase := usecase.NewSlotUsecase(log, clock, loc, repos.DoctorProfile, repos.ClinicService, repos.Appointment, scheduleProvider)
	appointmentUsecase := usecase.NewAppointmentUsecase(log, clock, policy, cfg.Clinic.NoShowGrace,
		repos.Appointment, repos.User, slotUsecase, slotLocker, app.EventHub)
	app.Usecases = Usecases{
		Slot:        slotUsecase,
		Appointment: appointmentUsecase,
		LabRequest:  usecase.NewLabRequestUsecase(log, clock, repos.LabRequest, repos.User, appointmentUsecase, app.EventHub),
		VideoSession: usecase.NewVideoSessionUsecase(log, clock, policy, usecase.VideoSessionOptions{
			TokenTTL:        cfg.Video.TokenTTL,
			RenewInterval:   cfg.Video.RenewInterval,
			ProviderTimeout: cfg.Video.ProviderTimeout,
		}, appointmentUsecase, sessionSigner, credentialStore, app.EventHub),
		ClinicService: usecase.NewClinicServiceUsecase(log, repos.ClinicService, auditService),
		DoctorShift:   usecase.NewDoctorShiftUsecase(log, repos.DoctorShift, repos.DoctorProfile, auditService),
		Doctor:        usecase.NewDoctorUsecase(log, repos.DoctorProfile),
		AuditLog:      usecase.NewAuditLogUsecase(db, log, repos.AuditLog),
	}
	uc := app.Usecases

	// Credentials of cancelled or finished consultations are dropped on every committed event.
	app.EventHub.AddHook(uc.VideoSession.HandleEvent)

	// Initialize handlers
	handlers := deliveryHttp.Handlers{
		Appointment:   handler.NewAppointmentHandler(uc.Appointment, customValidator, loc),
		LabRequest:    handler.NewLabRequestHandler(uc.LabRequest, customValidator),
		Video:         handler.NewVideoHandler(uc.VideoSession, customValidator),
		Doctor:        handler.NewDoctorHandler(uc.Doctor, uc.Slot, loc),
		ClinicService: handler.NewClinicServiceHandler(uc.ClinicService, customValidator),
		DoctorShift:   handler.NewDoctorShiftHandler(uc.DoctorShift, customValidator),
		AuditLog:      handler.NewAuditLogHandler(uc.AuditLog),
		Event:         handler.NewEventHandler(app.EventHub, log),
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(app.JWT, app.RedisClient)
	corsMiddleware := middleware.NewCORSMiddleware()
	requestLogger := middleware.NewRequestLoggerMiddleware(log)

	// Initialize router
	router := deliveryHttp.NewRouter(handlers, authMiddleware, corsMiddleware, requestLogger)

	// Create server
	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Run starts the HTTP server and background workers and handles graceful shutdown
func (app *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())

	app.startNoShowSweeper(ctx)

	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown(cancel)
}

// startNoShowSweeper periodically closes appointments whose patient never showed up.
func (app *App) startNoShowSweeper(ctx context.Context) {
	interval := app.Config.Clinic.NoShowSweepInterval

	app.workers.Add(1)
	go func() {
		defer app.workers.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		app.Log.Infof("No-show sweeper running every %s", interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := app.SweepNoShows(ctx); err != nil {
					app.Log.Warnf("Failed to sweep no-shows: %+v", err)
				}
			}
		}
	}()
}

// SweepNoShows runs a single sweep and reports how many appointments were closed.
func (app *App) SweepNoShows(ctx context.Context) (int, error) {
	count, err := app.Usecases.Appointment.SweepNoShows(ctx)
	if count > 0 {
		app.Log.Infof("Marked %d appointments as no-show", count)
	}
	return count, err
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown(stopWorkers context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	stopWorkers()
	app.workers.Wait()

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close flushes pending notifications and closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.EventHub != nil {
		app.EventHub.Stop()
	}

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
