package main

import (
	"log"
	"time"

	"bug_track_app_go/config"
	"bug_track_app_go/db"
	"bug_track_app_go/handlers"
	"bug_track_app_go/middleware"
	"bug_track_app_go/models"
	"bug_track_app_go/services"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(&models.User{}, &models.Session{}, &models.Bug{}, &models.OperationLog{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize attachment storage (R2 or local fallback)
	services.InitializeStorage(cfg)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	// Public routes (no token required)
	e.POST("/api/signup", handlers.SignupHandler, middleware.SignupRateLimiter.Middleware())
	e.POST("/api/login", handlers.LoginHandler, middleware.LoginRateLimiter.Middleware())

	// Protected routes (bearer token required)
	api := e.Group("/api")
	api.Use(middleware.RequireAuth())
	{
		api.GET("/me", handlers.MeHandler)
		api.POST("/logout", handlers.LogoutHandler)

		api.GET("/bugs", handlers.GetBugsHandler)
		api.POST("/bugs", handlers.CreateBugHandler)
		api.PUT("/bugs/:id", handlers.UpdateBugHandler)
		api.DELETE("/bugs/:id", handlers.DeleteBugHandler)

		api.GET("/bugs/:id/comments", handlers.GetNotesHandler)
		api.POST("/bugs/:id/comments", handlers.AddCommentHandler)
		api.DELETE("/bugs/:id/comments/:index", handlers.DeleteCommentHandler)
		api.GET("/bugs/:id/meetings", handlers.GetMeetingsHandler)
		api.POST("/bugs/:id/meetings", handlers.AddMeetingHandler)
		api.DELETE("/bugs/:id/meetings/:index", handlers.DeleteMeetingHandler)

		api.POST("/bugs/:id/attachments", handlers.UploadAttachmentHandler)

		api.GET("/logs", handlers.GetLogsHandler)
		api.POST("/logs", handlers.CreateLogHandler)

		api.POST("/import-google-sheet", handlers.ImportGoogleSheetHandler, middleware.ImportRateLimiter.Middleware())
		api.POST("/import-workbook", handlers.ImportWorkbookHandler, middleware.ImportRateLimiter.Middleware())

		api.GET("/backup", handlers.BackupHandler)
	}

	// Static files (locally stored attachments)
	e.Static("/static", "static")

	// Start background session cleanup (runs every hour)
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if err := services.CleanupExpiredSessions(db.DB); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}
		}
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
