package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"choiros-backend/internal/auth"
	"choiros-backend/internal/config"
	"choiros-backend/internal/database"
	"choiros-backend/internal/db"
	"choiros-backend/internal/handlers"
	"choiros-backend/internal/health"
	h "choiros-backend/internal/http"
	"choiros-backend/internal/jobs"
	"choiros-backend/internal/metrics"
	"choiros-backend/internal/middleware"
	"choiros-backend/internal/repositories"
	"choiros-backend/internal/services"
	"choiros-backend/internal/wakeup"
	"choiros-backend/migrations"

	"github.com/hibiken/asynq"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	migrate := flag.Bool("migrate", true, "Apply pending database migrations on startup")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	if *migrate {
		// 003 is the station-local pending table
		migrator := database.NewMigratorWithFS(pool, migrations.FS, ".").
			Only(func(name string) bool { return !strings.HasPrefix(name, "003_") })
		if err := migrator.RunMigrations(context.Background()); err != nil {
			log.Fatalf("Migrations failed: %v", err)
		}
	}

	m := metrics.New("choiros")
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpirationHours, cfg.JWT.Leeway)

	// Repositories
	orgRepo := repositories.NewOrganizationRepository(pool)
	userRepo := repositories.NewUserRepository(pool)
	membershipRepo := repositories.NewMembershipRepository(pool)
	eventRepo := repositories.NewEventRepository(pool)
	attendanceRepo := repositories.NewAttendanceRepository(pool)

	hub := wakeup.NewHub(m)

	// Wake-up jobs
	var scheduler services.WakeupScheduler
	var worker *jobs.Worker
	if cfg.Jobs.Enabled {
		redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
		asynqClient := asynq.NewClient(redisOpt)
		defer asynqClient.Close()
		scheduler = jobs.NewScheduler(asynqClient, cfg.Jobs.WakeupLead)

		worker = jobs.NewWorker(redisOpt, cfg.Jobs.Concurrency, hub)
		if err := worker.Start(); err != nil {
			log.Printf("[Jobs] Worker not started, scheduled wake-ups disabled: %v", err)
			worker = nil
		}
	} else {
		log.Println("[Jobs] Disabled")
	}

	// Services
	attendanceService := services.NewAttendanceService(eventRepo, membershipRepo, attendanceRepo, cfg.Attendance.MaxClockSkew)
	attendanceService.SetMetrics(m)
	authService := services.NewAuthService(userRepo, jwtManager)
	codeService := services.NewCheckInCodeService(eventRepo, scheduler)

	loginLimiter := middleware.NewRateLimiter(5, time.Minute)
	defer loginLimiter.Stop()

	hc := health.NewHealthChecker().Register("database", pool.Ping)

	router := h.NewRouter(h.ServerHandlers{
		Auth:             handlers.NewAuthHandler(authService),
		Attendance:       handlers.NewAttendanceHandler(attendanceService),
		CheckInCode:      handlers.NewCheckInCodeHandler(codeService),
		Agents:           handlers.NewAgentsHandler(hub),
		AuthMiddleware:   middleware.NewAuthMiddleware(jwtManager),
		TenantMiddleware: middleware.NewTenantMiddleware(orgRepo, membershipRepo, cfg.Server.BaseDomain),
		LoginLimiter:     loginLimiter,
		Health:           hc,
		Metrics:          m,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.CORS(cfg.CORS.AllowedOrigins)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	if worker != nil {
		worker.Stop()
	}
}
