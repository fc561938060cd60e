package routes

import (
	"log"
	"os"

	"wayplan/config"
	controller "wayplan/controllers"
	"wayplan/middleware"
	"wayplan/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, enricher *utils.FlightEnricher, flightClient utils.FlightLookup) {
	uploadDir := config.AppConfig.UploadDir

	tripController := controller.NewTripController(db, log.New(os.Stdout, "TRIP: ", log.LstdFlags), uploadDir)
	segmentController := controller.NewSegmentController(db, log.New(os.Stdout, "SEGMENT: ", log.LstdFlags), uploadDir, enricher)
	flightController := controller.NewFlightController(flightClient, log.New(os.Stdout, "FLIGHT: ", log.LstdFlags))

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	auth.Post("/register", middleware.LoginRateLimiter(), controller.Register)
	auth.Post("/login", middleware.LoginRateLimiter(), controller.Login)
	auth.Post("/recover-admin", middleware.LoginRateLimiter(), controller.RecoverAdmin)
	auth.Get("/me", middleware.Protected(), controller.GetCurrentUser)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Trip routes
	trips := api.Group("/trips")
	trips.Get("/", tripController.ListTrips)
	trips.Post("/", tripController.CreateTrip)
	trips.Get("/:id", tripController.GetTrip)
	trips.Put("/:id", tripController.UpdateTrip)
	trips.Delete("/:id", tripController.DeleteTrip)
	trips.Put("/:id/planning", tripController.UpdatePlanning)
	trips.Post("/:id/image", tripController.UploadTripImage)

	// Sharing
	trips.Get("/:id/shares", tripController.ListShares)
	trips.Post("/:id/shares", tripController.AddShare)
	trips.Delete("/:id/shares/:shareId", tripController.RemoveShare)

	// Trip attachments
	trips.Post("/:id/attachments", tripController.AddTripAttachment)
	trips.Delete("/:id/attachments/:attachmentId", tripController.DeleteTripAttachment)

	// Segment routes
	trips.Post("/:id/segments", segmentController.CreateSegment)
	segments := api.Group("/segments")
	segments.Put("/:id", segmentController.UpdateSegment)
	segments.Delete("/:id", segmentController.DeleteSegment)
	segments.Post("/:id/sync", segmentController.SyncSegmentNow)
	segments.Post("/:id/attachments", segmentController.AddSegmentAttachment)
	segments.Delete("/:id/attachments/:attachmentId", segmentController.DeleteSegmentAttachment)

	// Flight lookup
	api.Get("/flights/lookup", flightController.LookupFlight)

	// Admin routes
	admin := api.Group("/admin", middleware.AdminOnly())
	admin.Get("/users", controller.ListUsers)
	admin.Patch("/users/:id/status", controller.UpdateUserStatus)
	admin.Patch("/users/:id/role", controller.UpdateUserRole)
	admin.Get("/settings/flight-api-key", controller.GetFlightAPIKey)
	admin.Put("/settings/flight-api-key", controller.SetFlightAPIKey)
	admin.Delete("/settings/flight-api-key", controller.DeleteFlightAPIKey)
}
