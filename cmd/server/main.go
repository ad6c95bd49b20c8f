package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"carte_challenge_echo/internal/config"
	"carte_challenge_echo/internal/handlers"
	"carte_challenge_echo/internal/ledger"
	"carte_challenge_echo/internal/logger"
	authMiddleware "carte_challenge_echo/internal/middleware"
	"carte_challenge_echo/internal/scan"
	"carte_challenge_echo/internal/services"
	"carte_challenge_echo/internal/session"
	"carte_challenge_echo/internal/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := config.Load()
	slogger := logger.New(cfg.LogLevel)

	// Initialize Firebase
	fb, err := services.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Firebase initialization failed: %v", err)
	}
	defer fb.Close()

	// Local cache: Redis when configured, in-process memory otherwise
	var cache store.LocalCache
	if cfg.RedisURL != "" {
		redisCache, err := store.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
		cache = redisCache
	} else {
		log.Println("Warning: REDIS_URL not set, using in-process cache")
		cache = store.NewMemoryCache()
	}

	// Initialize reporting database
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = services.InitDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		// Run auto-migration
		if err := services.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
	} else {
		log.Println("Warning: DATABASE_URL not set, reporting features disabled")
	}

	// Wire the domain
	syncStore := store.NewSyncStore(store.NewFirestoreStore(fb.Firestore), cache, slogger)
	visitLedger := ledger.New(syncStore, cfg.RewardConfig(), slogger)
	scanner := scan.New(visitLedger, slogger)
	loyaltySvc := services.NewLoyaltyService(syncStore, visitLedger, scanner, cfg.RewardConfig(), db, cfg.DefaultGeofence, slogger)
	sessions := session.NewManager(syncStore, cache, slogger)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = authMiddleware.CustomErrorHandler

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(fb.Auth, syncStore)
	memberHandler := handlers.NewMemberHandler(loyaltySvc, sessions)
	adminHandler := handlers.NewAdminHandler(loyaltySvc)

	// Public routes
	e.POST("/auth/register", authHandler.HandleRegister)
	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)

	api := e.Group("/api")
	api.POST("/members/login", memberHandler.HandleLogin)
	api.POST("/members/:id/logout", memberHandler.HandleLogout)
	api.GET("/members/:id/session", memberHandler.HandleSession)
	api.POST("/members/:id/scan", memberHandler.HandleScan)
	api.GET("/members/:id/progress", memberHandler.HandleProgress)
	api.GET("/members/:id/visits", memberHandler.HandleVisits)
	api.GET("/members/:id/stats", memberHandler.HandleStats)
	api.GET("/club", memberHandler.HandleClubInfo)
	api.GET("/rewards", memberHandler.HandleRewards)

	// Protected admin routes
	admin := e.Group("/admin")
	admin.Use(authMiddleware.RequireAuth(fb.Auth))
	admin.PUT("/club", adminHandler.HandleUpdateClub)
	admin.GET("/members", adminHandler.HandleListMembers)
	admin.POST("/members", adminHandler.HandleCreateMember)
	admin.DELETE("/members/:id", adminHandler.HandleDeleteMember)
	admin.POST("/rewards", adminHandler.HandleCreateReward)
	admin.DELETE("/rewards/:id", adminHandler.HandleDeleteReward)
	admin.GET("/stats", adminHandler.HandleStats)

	// Warm the cache for a single-club deployment
	if clubID := os.Getenv("WATCH_CLUB_ID"); clubID != "" {
		watchCtx, cancelWatch := context.WithCancel(context.Background())
		defer cancelWatch()
		go func() {
			if err := syncStore.WatchMembers(watchCtx, clubID); err != nil {
				slogger.Warn("member watch stopped", "club", clubID, "error", err)
			}
		}()
	}

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()
	log.Printf("Server starting on port %s", cfg.Port)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
