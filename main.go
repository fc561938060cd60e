package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"wayplan/config"
	"wayplan/middleware"
	"wayplan/routes"
	"wayplan/utils"
	"wayplan/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "WAYPLAN: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := utils.EnsureUploadDirs(config.AppConfig.UploadDir); err != nil {
		logger.Fatalf("Failed to prepare upload directories: %v", err)
	}

	// Create Fiber app
	app := fiber.New()
	app.Use(middleware.CORS())
	app.Static("/uploads", config.AppConfig.UploadDir)

	// Flight enrichment: shared client for on-demand lookups and the
	// background sync worker.
	flightClient := utils.NewFlightClient(config.DB, config.AppConfig.FlightAPIBaseURL, config.AppConfig.FlightAPIKey)
	enricher := utils.NewFlightEnricher(config.DB, flightClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if config.AppConfig.FlightSyncEnabled {
		syncWorker := worker.NewFlightSyncWorker(config.DB, enricher)
		go syncWorker.Start(ctx)
	}

	// Setup routes
	routes.SetupRoutes(app, config.DB, enricher, flightClient)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
