package controller

import (
	"log"
	"strings"
	"time"

	"wayplan/models"
	"wayplan/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TripController struct {
	DB        *gorm.DB
	Logger    *log.Logger
	UploadDir string
}

func NewTripController(db *gorm.DB, logger *log.Logger, uploadDir string) *TripController {
	return &TripController{
		DB:        db,
		Logger:    logger,
		UploadDir: uploadDir,
	}
}

type CreateTripRequest struct {
	Title        string  `json:"title" validate:"required,max=200"`
	MainLocation *string `json:"main_location" validate:"omitempty,max=200"`
	StartDate    string  `json:"start_date" validate:"required"`
	EndDate      string  `json:"end_date" validate:"required"`
	Notes        *string `json:"notes"`
}

type UpdateTripRequest struct {
	Title        *string `json:"title" validate:"omitempty,max=200"`
	MainLocation *string `json:"main_location" validate:"omitempty,max=200"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Notes        *string `json:"notes"`
}

type UpdatePlanningRequest struct {
	Planning map[string]interface{} `json:"planning" validate:"required"`
}

// parseDate accepts both date-only values and full RFC3339 timestamps.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// ListTrips returns every trip the caller owns or has been granted access
// to, ordered by start date, with the caller's effective permission on each.
func (tc *TripController) ListTrips(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var trips []models.Trip
	err := tc.DB.
		Preload("Shares", "user_id = ?", user.ID).
		Where("user_id = ?", user.ID).
		Or("id IN (?)", tc.DB.Model(&models.TripShare{}).Select("trip_id").Where("user_id = ?", user.ID)).
		Order("start_date ASC").
		Find(&trips).Error
	if err != nil {
		tc.Logger.Printf("Failed to list trips for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list trips",
		})
	}

	for i := range trips {
		if permission, ok := models.ResolveTripPermission(&trips[i], user.ID, user.Role); ok {
			trips[i].AccessPermission = permission
		}
		trips[i].Shares = nil
	}

	return c.JSON(trips)
}

// GetTrip returns the trip aggregate. Requires view access; a caller without
// any access gets the same not-found as for a nonexistent trip.
func (tc *TripController) GetTrip(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	tripID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid trip ID",
		})
	}

	trip, err := requireTripPermission(tc.DB, uint(tripID), user, models.PermissionView)
	if err != nil {
		return respondError(c, err)
	}

	full, err := getTripWithDetails(tc.DB, trip.ID)
	if err != nil {
		tc.Logger.Printf("Failed to load trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load trip",
		})
	}
	full.AccessPermission = trip.AccessPermission

	return c.JSON(full)
}

func (tc *TripController) CreateTrip(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateTripRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid start date",
		})
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid end date",
		})
	}
	if endDate.Before(startDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "End date may not precede start date",
		})
	}

	trip := models.Trip{
		UserID:       user.ID,
		Title:        strings.TrimSpace(req.Title),
		MainLocation: req.MainLocation,
		StartDate:    startDate,
		EndDate:      endDate,
		Notes:        req.Notes,
	}

	if err := tc.DB.Create(&trip).Error; err != nil {
		tc.Logger.Printf("Failed to create trip for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create trip",
		})
	}

	trip.AccessPermission = models.PermissionOwner
	return c.Status(fiber.StatusCreated).JSON(trip)
}

func (tc *TripController) UpdateTrip(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	tripID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid trip ID",
		})
	}

	trip, err := requireTripPermission(tc.DB, uint(tripID), user, models.PermissionEdit)
	if err != nil {
		return respondError(c, err)
	}

	var req UpdateTripRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.MainLocation != nil {
		updates["main_location"] = *req.MainLocation
	}
	if req.StartDate != nil {
		startDate, err := parseDate(*req.StartDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid start date",
			})
		}
		updates["start_date"] = startDate
	}
	if req.EndDate != nil {
		endDate, err := parseDate(*req.EndDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid end date",
			})
		}
		updates["end_date"] = endDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := tc.DB.Model(trip).Updates(updates).Error; err != nil {
			tc.Logger.Printf("Failed to update trip %d: %v", trip.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update trip",
			})
		}
	}

	trip.Shares = nil
	return c.JSON(trip)
}

// UpdatePlanning replaces the trip's planning document. The document is
// client-owned and stored verbatim.
func (tc *TripController) UpdatePlanning(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	tripID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid trip ID",
		})
	}

	trip, err := requireTripPermission(tc.DB, uint(tripID), user, models.PermissionEdit)
	if err != nil {
		return respondError(c, err)
	}

	var req UpdatePlanningRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Planning == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "planning is required",
		})
	}

	trip.Planning = req.Planning
	if err := tc.DB.Model(trip).Select("planning").Updates(trip).Error; err != nil {
		tc.Logger.Printf("Failed to update planning for trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update planning",
		})
	}

	trip.Shares = nil
	return c.JSON(trip)
}

// UploadTripImage stores a new cover image and best-effort unlinks the
// previous one.
func (tc *TripController) UploadTripImage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	tripID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid trip ID",
		})
	}

	trip, err := requireTripPermission(tc.DB, uint(tripID), user, models.PermissionEdit)
	if err != nil {
		return respondError(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only image uploads allowed",
		})
	}

	path, err := utils.SaveUpload(c, file, tc.UploadDir, utils.UploadTripsDir)
	if err != nil {
		tc.Logger.Printf("Failed to store image for trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store image",
		})
	}

	if trip.ImagePath != nil {
		utils.RemoveFileIfExists(tc.UploadDir, *trip.ImagePath)
	}

	if err := tc.DB.Model(trip).Update("image_path", path).Error; err != nil {
		tc.Logger.Printf("Failed to update image for trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update trip",
		})
	}

	trip.ImagePath = &path
	trip.Shares = nil
	return c.JSON(trip)
}
