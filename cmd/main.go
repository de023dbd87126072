package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"partner-portal-service/internal/clients"
	"partner-portal-service/internal/config"
	"partner-portal-service/internal/handlers"
	"partner-portal-service/internal/middleware"
	"partner-portal-service/internal/migration"
	"partner-portal-service/internal/models"
	"partner-portal-service/internal/repository"
	"partner-portal-service/internal/services"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := migration.Run(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize Redis (used for login lockout state; optional)
	redisClient := initRedis(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Server.Mode == "release" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize repositories
	adminRepo := repository.NewAdminRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Initialize services
	jwtService := services.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiryMins,
		cfg.JWT.RefreshExpiryDays,
	)
	passwordService := services.NewPasswordService()
	authService := services.NewAuthService(adminRepo, partnerRepo, sessionRepo, jwtService, passwordService)
	partnerService := services.NewPartnerService(partnerRepo, passwordService, sessionRepo)
	paymentService := services.NewPaymentService(paymentRepo, cfg.Portal)
	leadService := services.NewLeadService(leadRepo, paymentService)
	reportService := services.NewReportService(reportRepo)

	// Seed the first admin account if the table is empty
	if err := seedAdmin(adminRepo, passwordService); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	// Notification client for partner emails (nil when not configured)
	notificationClient := clients.NewNotificationClient()
	if notificationClient == nil {
		log.Println("NOTIFICATION_SERVICE_URL not set, partner email notifications disabled")
	}

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(authService)
	adminHandlers := handlers.NewAdminHandlers(partnerService, leadService, paymentService, notificationClient)
	partnerHandlers := handlers.NewPartnerHandlers(partnerService, leadService, paymentService, reportService)
	reportHandlers := handlers.NewReportHandlers(reportService)
	healthHandlers := handlers.NewHealthHandlers(db)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)
	securityMiddleware := middleware.NewSecurityMiddleware(redisClient, logger)
	securityHandlers := handlers.NewSecurityHandlers(securityMiddleware)

	// Setup Gin router
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestLoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.GeneralRateLimit())
	router.Use(gin.Recovery())

	// Health check endpoints
	router.GET("/health", healthHandlers.Health)
	router.GET("/ready", healthHandlers.Ready)

	// API routes
	api := router.Group("/api/v1")
	{
		// Public authentication routes with rate limiting and lockout
		auth := api.Group("/auth")
		{
			auth.POST("/admin/login",
				middleware.AuthRateLimit(),
				securityMiddleware.AccountLockoutMiddleware(),
				authHandlers.AdminLogin,
			)
			auth.POST("/partner/login",
				middleware.AuthRateLimit(),
				securityMiddleware.AccountLockoutMiddleware(),
				authHandlers.PartnerLogin,
			)
			auth.POST("/refresh",
				middleware.AuthRateLimit(),
				authHandlers.RefreshToken,
			)
		}

		// Authenticated session routes
		session := api.Group("/auth")
		session.Use(authMiddleware.AuthRequired())
		{
			session.POST("/logout", authHandlers.Logout)
			session.GET("/me", authHandlers.Me)
			session.GET("/sessions", authHandlers.Sessions)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(authMiddleware.AdminOnly())
		{
			partners := admin.Group("/partners")
			{
				partners.POST("", adminHandlers.CreatePartner)
				partners.GET("", adminHandlers.ListPartners)
				partners.GET("/:id", adminHandlers.GetPartner)
				partners.PUT("/:id", adminHandlers.UpdatePartner)
				partners.PUT("/:id/status", adminHandlers.SetPartnerStatus)
				partners.DELETE("/:id", adminHandlers.DeletePartner)
				partners.POST("/:id/password",
					middleware.PasswordResetRateLimit(),
					adminHandlers.ResetPartnerPassword,
				)
			}

			leads := admin.Group("/leads")
			{
				leads.GET("", adminHandlers.ListLeads)
				leads.GET("/:id", adminHandlers.GetLead)
				leads.PUT("/:id/status", adminHandlers.UpdateLeadStatus)
				leads.GET("/:id/history", adminHandlers.LeadHistory)
			}

			payments := admin.Group("/payments")
			{
				payments.GET("", adminHandlers.ListPayments)
				payments.POST("/:id/release", adminHandlers.ReleasePayment)
			}

			reports := admin.Group("/reports")
			{
				reports.GET("/leads", reportHandlers.LeadSummary)
				reports.GET("/payments", reportHandlers.PaymentSummary)
				reports.GET("/partners", reportHandlers.PartnerPerformance)
			}

			security := admin.Group("/security")
			{
				security.GET("/lockouts", securityHandlers.GetLockoutStatus)
				security.POST("/unlock", securityHandlers.UnlockAccount)
			}
		}

		// Partner routes
		partner := api.Group("/partner")
		partner.Use(authMiddleware.PartnerOnly())
		{
			partner.GET("/dashboard", partnerHandlers.Dashboard)
			partner.GET("/profile", partnerHandlers.GetProfile)
			partner.PUT("/profile", partnerHandlers.UpdateProfile)
			partner.PUT("/password",
				middleware.PasswordResetRateLimit(),
				partnerHandlers.ChangePassword,
			)
			partner.POST("/leads", partnerHandlers.CreateLead)
			partner.GET("/leads", partnerHandlers.ListLeads)
			partner.GET("/leads/:id", partnerHandlers.GetLead)
			partner.GET("/payments", partnerHandlers.ListPayments)
		}
	}

	// Start server
	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.WithFields(logrus.Fields{
		"addr":     serverAddr,
		"mode":     cfg.Server.Mode,
		"database": fmt.Sprintf("%s@%s:%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port),
	}).Info("Partner portal service starting")

	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initDatabase initializes the PostgreSQL database connection
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connected successfully")
	return db, nil
}

// initRedis initializes the Redis client. The service runs without Redis,
// falling back to in-memory lockout state.
func initRedis(cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection failed: %v", err)
		log.Println("Continuing without Redis (lockout state will be local)")
		return nil
	}

	log.Println("Redis connected successfully")
	return rdb
}

// seedAdmin creates the initial admin account when none exists
func seedAdmin(adminRepo *repository.AdminRepository, passwords *services.PasswordService) error {
	count, err := adminRepo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("No admin accounts and ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping seed")
		return nil
	}

	hash, err := passwords.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &models.Admin{
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		IsActive:     true,
	}
	if name := os.Getenv("ADMIN_NAME"); name != "" {
		admin.Name = name
	}

	if err := adminRepo.Create(admin); err != nil {
		return err
	}

	log.Printf("Seeded initial admin account: %s", email)
	return nil
}
