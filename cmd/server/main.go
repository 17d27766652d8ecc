package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/presensi-backend/internal/config"
	"github.com/stemsi/presensi-backend/internal/database"
	"github.com/stemsi/presensi-backend/internal/faceapi"
	"github.com/stemsi/presensi-backend/internal/handler"
	"github.com/stemsi/presensi-backend/internal/logger"
	"github.com/stemsi/presensi-backend/internal/repository"
	"github.com/stemsi/presensi-backend/internal/router"
	"github.com/stemsi/presensi-backend/internal/service"
	"github.com/stemsi/presensi-backend/internal/validator"
	"github.com/stemsi/presensi-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("attendance_policy", cfg.AttendancePolicy).
		Msg("Starting Presensi Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Face Inference Provider ───────────────────────────────────────
	faceClient, err := faceapi.NewClient(cfg.FaceAPIURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid face API configuration")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	groupRepo := repository.NewGroupRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	adminService := service.NewAdminService(adminRepo)
	groupService := service.NewGroupService(groupRepo)
	studentService := service.NewStudentService(studentRepo)
	attendanceService := service.NewAttendanceService(attendanceRepo)
	dashboardService := service.NewDashboardService(rdb)

	publisher := worker.NewRedisEventPublisher(rdb)
	recognitionService := service.NewRecognitionService(
		cfg, faceClient, faceClient, studentRepo, studentRepo,
		sessionRepo, attendanceRepo, publisher, log,
	)
	enrollmentService := service.NewEnrollmentService(cfg, faceClient, faceClient, studentRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService, adminService),
		Recognition: handler.NewRecognitionHandler(recognitionService, cfg),
		Enrollment:  handler.NewEnrollmentHandler(enrollmentService, cfg),
		Group:       handler.NewGroupHandler(groupService),
		Student:     handler.NewStudentHandler(studentService),
		Attendance:  handler.NewAttendanceHandler(attendanceService),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
		WS:          handler.NewWSHandler(rdb, cfg),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	statsWorker := worker.NewStatsWorker(rdb, log)
	go statsWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the stats worker and let the queue drain.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
