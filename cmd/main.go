package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"stylist-marketplace/internal/auth"
	"stylist-marketplace/internal/config"
	"stylist-marketplace/internal/database"
	"stylist-marketplace/internal/handlers"
	"stylist-marketplace/internal/jobs"
	"stylist-marketplace/internal/models"
	"stylist-marketplace/internal/payments"
	"stylist-marketplace/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize payment provider client
	paymentsClient := payments.NewClient(
		cfg.Payments.BaseURL,
		cfg.Payments.APIKey,
		cfg.Payments.Secret,
	)

	// Initialize payout service
	payoutService := services.NewPayoutService(database.GetDB(), paymentsClient)

	// Initialize handlers
	affiliateHandler := handlers.NewAffiliateHandler(
		database.GetDB(),
		cfg.App.AttributionCookieName,
		cfg.App.AttributionCookieDomain,
		cfg.App.AttributionWindowDays,
	)
	checkoutHandler := handlers.NewCheckoutHandler(
		database.GetDB(),
		cfg.App.AttributionCookieName,
		cfg.App.AttributionCookieDomain,
		cfg.App.AttributionWindowDays,
	)
	adminHandler := handlers.NewAdminHandler(database.GetDB(), payoutService, cfg.App.AttributionWindowDays)
	webhookHandler := handlers.NewWebhookHandler(database.GetDB())

	// Start attribution sweeper job (runs every 6 hours)
	sweeper := jobs.NewAttributionSweeper(database.GetDB(), cfg.App.AttributionWindowDays)
	sweeper.Start(6 * time.Hour)
	log.Println("Attribution sweeper job started")

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	// Add additional frontend URL from environment if provided
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Payment provider webhooks (public, provider-authenticated payload)
	router.POST("/webhooks/payments", webhookHandler.PaymentEvent)

	// Public affiliate routes (anonymous visitors included)
	public := router.Group("/api/affiliate")
	public.Use(auth.OptionalAuthMiddleware())
	{
		public.POST("/validate", affiliateHandler.ValidateCode)
		public.POST("/capture", affiliateHandler.CaptureCode)
		public.GET("/attribution", affiliateHandler.GetAttribution)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// Affiliate endpoints (protected)
		api.POST("/affiliate/transfer", affiliateHandler.TransferAttribution)
		api.GET("/affiliate/code", affiliateHandler.GetMyCode)
		api.GET("/affiliate/commissions", affiliateHandler.GetCommissions)

		// Checkout endpoints (protected)
		api.POST("/checkout/discount", checkoutHandler.ComputeDiscount)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(auth.RequireRole(models.RoleAdmin))
	{
		admin.POST("/payouts/generate", adminHandler.GeneratePayoutBatch)
		admin.POST("/payouts/:id/submit", adminHandler.SubmitPayoutBatch)
		admin.GET("/payouts", adminHandler.ListPayoutBatches)
		admin.POST("/attributions/sweep", adminHandler.SweepAttributions)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
