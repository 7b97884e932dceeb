package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/societypro/admin-service/internal/api"
	"github.com/societypro/admin-service/internal/db"
	"github.com/societypro/admin-service/internal/logging"
	"github.com/societypro/admin-service/internal/services"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.SetOutput(os.Stdout)
	log.Printf("SocietyPro admin service starting (GIT_SHA=%s BUILD_TIME=%s)", os.Getenv("GIT_SHA"), os.Getenv("BUILD_TIME"))

	// Initialize database connection (non-fatal; allow process to start for /live)
	database, err := db.NewDatabase()
	if err != nil {
		log.Printf("[WARN] Database initialization failed at startup: %v", err)
	}
	if database != nil {
		defer database.Close()
	}

	// Initialize AWS configs separately for SES (email) and SNS (SMS)
	sesRegion := os.Getenv("SES_AWS_REGION")
	if sesRegion == "" {
		if os.Getenv("AWS_DEFAULT_REGION") != "" {
			sesRegion = os.Getenv("AWS_DEFAULT_REGION")
		} else {
			sesRegion = "eu-central-1"
		}
	}
	sesCfg, sesErr := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(sesRegion))
	if sesErr != nil {
		log.Printf("[WARN] SES AWS config load failed: %v", sesErr)
	}

	snsRegion := os.Getenv("SNS_AWS_REGION")
	if snsRegion == "" {
		if os.Getenv("AWS_DEFAULT_REGION") != "" {
			snsRegion = os.Getenv("AWS_DEFAULT_REGION")
		} else {
			snsRegion = "eu-central-1"
		}
	}
	snsCfg, snsErr := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(snsRegion))
	if snsErr != nil {
		log.Printf("[WARN] SNS AWS config load failed: %v", snsErr)
	}

	// Initialize services; nil services degrade to 500s at call time rather
	// than blocking startup.
	var store api.Store
	if database != nil {
		store = database
	} else {
		log.Println("[WARN] Database unavailable at startup; readiness will report accordingly")
	}
	var emailSender api.EmailSender
	if sesErr == nil {
		emailSender = services.NewEmailService(sesCfg)
	} else {
		log.Printf("[WARN] Email service not initialized due to SES config error")
	}
	var smsSender api.SmsSender
	if snsErr == nil {
		smsSender = services.NewSmsService(snsCfg)
	} else {
		log.Printf("[WARN] SMS service not initialized due to SNS config error")
	}

	handler := api.NewHandler(store, emailSender, smsSender)

	router := setupRouter(handler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	// Set up graceful shutdown
	go func() {
		log.Printf("Starting admin service on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down admin service...")
}

func setupRouter(handler *api.Handler) *gin.Engine {
	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(logging.JSONLogger())
	router.Use(gin.Recovery())
	router.Use(api.SecurityHeaders())
	router.Use(api.CORSMiddleware(os.Getenv("FRONTEND_ORIGIN")))

	// Liveness and readiness endpoints
	router.GET("/live", func(c *gin.Context) { c.Status(200) })
	router.GET("/ready", handler.Health)
	router.GET("/health", func(c *gin.Context) { c.Status(200) })

	// Root endpoint for basic info
	router.GET("/", handler.Root)

	// All API routes share the sliding-window rate limit.
	apiRoutes := router.Group("/api")
	apiRoutes.Use(handler.RateLimit(100, 15*time.Minute))
	{
		apiRoutes.POST("/auth/login", handler.Login)

		// Public self-service registration
		apiRoutes.POST("/societies/register", handler.RegisterSociety)
		apiRoutes.POST("/residents/register", handler.RegisterResident)
		apiRoutes.POST("/watchmen/register", handler.RegisterWatchman)

		// Privileged operations require an admin profile
		admin := apiRoutes.Group("")
		admin.Use(handler.RequireAdmin())
		{
			admin.POST("/create-admin", handler.CreateAdmin)
			admin.POST("/create-resident", handler.CreateResident)
			admin.POST("/create-watchman", handler.CreateWatchman)
			admin.POST("/send-email", handler.SendEmail)
			admin.POST("/delete-user", handler.DeleteUser)
			admin.POST("/delete-society", handler.DeleteSociety)
			admin.GET("/resident-requests", handler.ListResidentRequests)
			admin.GET("/watchman-requests", handler.ListWatchmanRequests)
			admin.POST("/approve-resident-request", handler.ApproveResidentRequest)
			admin.POST("/approve-watchman-request", handler.ApproveWatchmanRequest)
		}

		// Society lifecycle is driven by the executive account
		executive := apiRoutes.Group("")
		executive.Use(handler.RequireExecutive())
		{
			executive.GET("/societies", handler.ListSocieties)
			executive.POST("/approve-society", handler.ApproveSociety)
			executive.POST("/reject-society", handler.RejectSociety)
		}
	}

	return router
}
