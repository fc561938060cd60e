package controller

import (
	"errors"
	"log"
	"time"

	"wayplan/models"
	"wayplan/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SegmentController struct {
	DB        *gorm.DB
	Logger    *log.Logger
	UploadDir string
	Enricher  *utils.FlightEnricher
}

func NewSegmentController(db *gorm.DB, logger *log.Logger, uploadDir string, enricher *utils.FlightEnricher) *SegmentController {
	return &SegmentController{
		DB:        db,
		Logger:    logger,
		UploadDir: uploadDir,
		Enricher:  enricher,
	}
}

type CreateSegmentRequest struct {
	Type             models.SegmentType     `json:"type" validate:"required,oneof=transport accommodation activity note"`
	TransportMode    *models.TransportMode  `json:"transport_mode" validate:"omitempty,oneof=flight train bus taxi rideshare drive"`
	Title            string                 `json:"title" validate:"required,max=200"`
	StartTime        string                 `json:"start_time" validate:"required"`
	EndTime          *string                `json:"end_time"`
	Location         *string                `json:"location"`
	Provider         *string                `json:"provider"`
	ConfirmationCode *string                `json:"confirmation_code"`
	Details          map[string]interface{} `json:"details"`
	SortOrder        *int                   `json:"sort_order"`
	FlightNumber     *string                `json:"flight_number"`
	SeatNumber       *string                `json:"seat_number"`
	PassengerName    *string                `json:"passenger_name"`
}

type UpdateSegmentRequest struct {
	Type             *models.SegmentType    `json:"type" validate:"omitempty,oneof=transport accommodation activity note"`
	TransportMode    *models.TransportMode  `json:"transport_mode" validate:"omitempty,oneof=flight train bus taxi rideshare drive"`
	Title            *string                `json:"title" validate:"omitempty,max=200"`
	StartTime        *string                `json:"start_time"`
	EndTime          *string                `json:"end_time"`
	Location         *string                `json:"location"`
	Provider         *string                `json:"provider"`
	ConfirmationCode *string                `json:"confirmation_code"`
	Details          map[string]interface{} `json:"details"`
	SortOrder        *int                   `json:"sort_order"`
	FlightNumber     *string                `json:"flight_number"`
	SeatNumber       *string                `json:"seat_number"`
	PassengerName    *string                `json:"passenger_name"`
}

// loadSegment fetches a segment and authorizes the caller against its trip.
// A missing segment and an inaccessible trip are both not-found.
func (sc *SegmentController) loadSegment(segmentID uint, user *models.User, required models.TripPermission) (*models.Segment, error) {
	var segment models.Segment
	if err := sc.DB.First(&segment, segmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("Segment not found")
		}
		return nil, err
	}

	if _, err := requireTripPermission(sc.DB, segment.TripID, user, required); err != nil {
		return nil, err
	}
	return &segment, nil
}

// CreateSegment adds an itinerary entry to a trip and returns the fresh trip
// aggregate. Flight segments are enriched inline; an enrichment failure is
// recorded on the segment and never fails the create.
func (sc *SegmentController) CreateSegment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	tripID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid trip ID",
		})
	}

	trip, err := requireTripPermission(sc.DB, uint(tripID), user, models.PermissionEdit)
	if err != nil {
		return respondError(c, err)
	}

	var req CreateSegmentRequest
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

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid start time",
		})
	}

	segment := models.Segment{
		TripID:           trip.ID,
		Type:             req.Type,
		TransportMode:    req.TransportMode,
		Title:            req.Title,
		StartTime:        startTime,
		Location:         req.Location,
		Provider:         req.Provider,
		ConfirmationCode: req.ConfirmationCode,
		Details:          req.Details,
		FlightNumber:     req.FlightNumber,
		SeatNumber:       req.SeatNumber,
		PassengerName:    req.PassengerName,
	}
	if req.EndTime != nil {
		endTime, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid end time",
			})
		}
		segment.EndTime = &endTime
	}
	if req.SortOrder != nil {
		segment.SortOrder = *req.SortOrder
	}

	if err := sc.DB.Create(&segment).Error; err != nil {
		sc.Logger.Printf("Failed to create segment on trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create segment",
		})
	}

	sc.Enricher.EnrichSegment(&segment)

	full, err := getTripWithDetails(sc.DB, trip.ID)
	if err != nil {
		sc.Logger.Printf("Failed to load trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load trip",
		})
	}
	full.AccessPermission = trip.AccessPermission

	return c.Status(fiber.StatusCreated).JSON(full)
}

// UpdateSegment applies a partial update and re-enriches the segment when it
// is (still) a flight. Enrichment fields themselves are never client-writable.
func (sc *SegmentController) UpdateSegment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	segmentID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid segment ID",
		})
	}

	segment, err := sc.loadSegment(uint(segmentID), user, models.PermissionEdit)
	if err != nil {
		return respondError(c, err)
	}

	var req UpdateSegmentRequest
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
	if req.Type != nil {
		updates["type"] = *req.Type
		segment.Type = *req.Type
	}
	if req.TransportMode != nil {
		updates["transport_mode"] = *req.TransportMode
		segment.TransportMode = req.TransportMode
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.StartTime != nil {
		startTime, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid start time",
			})
		}
		updates["start_time"] = startTime
		segment.StartTime = startTime
	}
	if req.EndTime != nil {
		endTime, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid end time",
			})
		}
		updates["end_time"] = endTime
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Provider != nil {
		updates["provider"] = *req.Provider
	}
	if req.ConfirmationCode != nil {
		updates["confirmation_code"] = *req.ConfirmationCode
	}
	if req.Details != nil {
		segment.Details = req.Details
		if err := sc.DB.Model(segment).Select("details").Updates(segment).Error; err != nil {
			sc.Logger.Printf("Failed to update segment %d details: %v", segment.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update segment",
			})
		}
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.FlightNumber != nil {
		updates["flight_number"] = *req.FlightNumber
		segment.FlightNumber = req.FlightNumber
	}
	if req.SeatNumber != nil {
		updates["seat_number"] = *req.SeatNumber
	}
	if req.PassengerName != nil {
		updates["passenger_name"] = *req.PassengerName
	}

	if len(updates) > 0 {
		if err := sc.DB.Model(segment).Updates(updates).Error; err != nil {
			sc.Logger.Printf("Failed to update segment %d: %v", segment.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update segment",
			})
		}
	}

	if segment.IsFlight() {
		sc.Enricher.EnrichSegment(segment)
	} else if segment.FlightAutoSync || segment.FlightLastFetchStatus != nil {
		// The segment stopped being a flight; drop its enrichment state.
		sc.Enricher.ClearEnrichment(segment)
	}

	full, err := getTripWithDetails(sc.DB, segment.TripID)
	if err != nil {
		sc.Logger.Printf("Failed to load trip %d: %v", segment.TripID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load trip",
		})
	}

	return c.JSON(full)
}

// DeleteSegment removes a segment together with its attachments: files are
// unlinked best-effort first, then attachment rows and the segment row go in
// one transaction.
func (sc *SegmentController) DeleteSegment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	segmentID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid segment ID",
		})
	}

	segment, err := sc.loadSegment(uint(segmentID), user, models.PermissionEdit)
	if err != nil {
		return respondError(c, err)
	}

	var attachments []models.Attachment
	if err := sc.DB.Where("segment_id = ?", segment.ID).Find(&attachments).Error; err != nil {
		sc.Logger.Printf("Failed to enumerate attachments of segment %d: %v", segment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete segment",
		})
	}
	for _, att := range attachments {
		utils.RemoveFileIfExists(sc.UploadDir, att.Path)
	}

	// Start transaction
	tx := sc.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Unscoped().Where("segment_id = ?", segment.ID).Delete(&models.Attachment{}).Error; err != nil {
		tx.Rollback()
		sc.Logger.Printf("Failed to delete attachments of segment %d: %v", segment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete segment dependencies",
		})
	}

	if err := tx.Unscoped().Delete(&models.Segment{}, segment.ID).Error; err != nil {
		tx.Rollback()
		sc.Logger.Printf("Failed to delete segment %d: %v", segment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete segment",
		})
	}

	if err := tx.Commit().Error; err != nil {
		sc.Logger.Printf("Transaction commit failed for segment %d: %v", segment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to complete deletion",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Segment deleted successfully",
	})
}

// SyncSegmentNow runs an on-demand enrichment and returns the refreshed
// segment. The lookup outcome, good or bad, lands in the segment's fetch
// status rather than in the response code.
func (sc *SegmentController) SyncSegmentNow(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	segmentID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid segment ID",
		})
	}

	segment, err := sc.loadSegment(uint(segmentID), user, models.PermissionEdit)
	if err != nil {
		return respondError(c, err)
	}

	sc.Enricher.EnrichSegment(segment)

	var fresh models.Segment
	if err := sc.DB.Preload("Attachments").First(&fresh, segment.ID).Error; err != nil {
		sc.Logger.Printf("Failed to reload segment %d: %v", segment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load segment",
		})
	}

	return c.JSON(fresh)
}
