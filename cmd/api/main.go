package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fishlog/fishlog-backend/internal/api/handlers"
	"github.com/fishlog/fishlog-backend/internal/api/middleware"
	"github.com/fishlog/fishlog-backend/internal/config"
	"github.com/fishlog/fishlog-backend/internal/cron"
	"github.com/fishlog/fishlog-backend/internal/db"
	"github.com/fishlog/fishlog-backend/internal/email"
	"github.com/fishlog/fishlog-backend/internal/notification"
	"github.com/fishlog/fishlog-backend/internal/repository"
	"github.com/fishlog/fishlog-backend/internal/seed"
	"github.com/fishlog/fishlog-backend/internal/service"
	"github.com/fishlog/fishlog-backend/internal/socket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	log.Println("🔄 Running database migrations...")
	if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database migrations completed")

	// ============================================
	// Initialize PostgreSQL (pgxpool + sql.DB)
	// ============================================
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	postgres, err := db.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	defer postgres.Close()

	repos := repository.NewRepositories(postgres.Pool, postgres.DB)
	log.Println("📦 Repositories initialized")

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (continuing without cache)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			log.Println("⚡ Redis cache enabled")
		}
	}

	// ============================================
	// Initialize Email Service (optional)
	// ============================================
	var emailSvc *email.Service
	var emailQueue *email.EmailQueue
	if cfg.SMTPHost != "" {
		emailSvc = email.NewService(&email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			UseTLS:   cfg.SMTPUseTLS,
		})
		emailQueue = email.NewEmailQueue(emailSvc, 2)
		defer emailQueue.Stop()
		log.Println("📧 Email service initialized")
	} else {
		log.Println("⚠️  Email not configured (SMTP_HOST not set)")
	}

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	hub := socket.NewHub(socket.NewRoomAuthorizer(repos.GroupRepo))
	go hub.Run(ctx)
	broadcaster := socket.NewBroadcaster(hub)
	wsHandler := socket.NewHandler(hub, cfg.JWTSecret, cfg.CORSOrigins)
	log.Println("🔌 WebSocket hub initialized")

	notificationSvc := notification.NewService(repos.NotificationRepo)
	notificationSvc.SetBroadcaster(broadcaster)

	// ============================================
	// Initialize All Services
	// ============================================
	deps := &service.ServiceDeps{
		Config:      cfg,
		Repos:       repos,
		NotifSvc:    notificationSvc,
		Broadcaster: broadcaster,
	}
	// typed nils must not leak into the interfaces
	if redisDB != nil {
		deps.Cache = redisDB
	}
	if emailQueue != nil {
		deps.Mailer = emailQueue
	}
	services := service.NewServices(deps)
	log.Println("✨ All services initialized")

	if err := seed.SeedData(ctx, cfg, repos.UserRepo, services.Group); err != nil {
		log.Printf("⚠️ [Seed] %v", err)
	}

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS(), cfg.RateLimitRequests)
	scheduler := cron.NewScheduler(services, repos.NotificationRepo, limiter, cron.Config{
		InvitationRetention:   time.Duration(cfg.InvitationRetentionDays) * 24 * time.Hour,
		NotificationRetention: time.Duration(cfg.NotificationRetentionDays) * 24 * time.Hour,
	})
	scheduler.Start()
	defer scheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestLogger(), middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		status, dbStatus := http.StatusOK, "connected"
		if err := postgres.Ping(c.Request.Context()); err != nil {
			status, dbStatus = http.StatusServiceUnavailable, "unreachable"
		}
		c.JSON(status, gin.H{
			"status":     http.StatusText(status),
			"timestamp":  time.Now(),
			"database":   dbStatus,
			"cache":      getCacheStatus(redisDB),
			"websocket":  "active",
			"ws_clients": hub.GetConnectedClientsCount(),
			"email":      getEmailStatus(emailSvc),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(limiter.Middleware())
	api.GET("/ws", wsHandler.HandleWebSocket)
	handlers.RegisterRoutes(api, handlers.NewHandlers(services), services)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func getCacheStatus(redisDB *db.RedisDB) string {
	if redisDB != nil {
		return "connected"
	}
	return "disabled"
}

func getEmailStatus(emailSvc *email.Service) string {
	if emailSvc.Configured() {
		return "configured"
	}
	return "disabled"
}
