package controller

import (
	"wayplan/models"
	"wayplan/utils"

	"github.com/gofiber/fiber/v2"
)

// DeleteTrip removes a trip and everything hanging off it. Backing files are
// unlinked first, best-effort; the rows then go in a single transaction in
// foreign-key order (attachments, segments, shares, trip) so no child row
// ever survives its parent.
func (tc *TripController) DeleteTrip(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	tripID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid trip ID",
		})
	}

	trip, err := requireTripPermission(tc.DB, uint(tripID), user, models.PermissionOwner)
	if err != nil {
		return respondError(c, err)
	}

	var segmentIDs []uint
	if err := tc.DB.Model(&models.Segment{}).
		Where("trip_id = ?", trip.ID).
		Pluck("id", &segmentIDs).Error; err != nil {
		tc.Logger.Printf("Failed to enumerate segments of trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete trip",
		})
	}

	var attachments []models.Attachment
	query := tc.DB.Where("trip_id = ?", trip.ID)
	if len(segmentIDs) > 0 {
		query = query.Or("segment_id IN ?", segmentIDs)
	}
	if err := query.Find(&attachments).Error; err != nil {
		tc.Logger.Printf("Failed to enumerate attachments of trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete trip",
		})
	}

	// File cleanup is advisory; a failed unlink must not block the delete.
	for _, att := range attachments {
		utils.RemoveFileIfExists(tc.UploadDir, att.Path)
	}
	if trip.ImagePath != nil {
		utils.RemoveFileIfExists(tc.UploadDir, *trip.ImagePath)
	}

	// Start transaction
	tx := tc.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	attQuery := tx.Unscoped().Where("trip_id = ?", trip.ID)
	if len(segmentIDs) > 0 {
		attQuery = attQuery.Or("segment_id IN ?", segmentIDs)
	}
	if err := attQuery.Delete(&models.Attachment{}).Error; err != nil {
		tx.Rollback()
		tc.Logger.Printf("Failed to delete attachments of trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete trip dependencies",
		})
	}

	if err := tx.Unscoped().Where("trip_id = ?", trip.ID).Delete(&models.Segment{}).Error; err != nil {
		tx.Rollback()
		tc.Logger.Printf("Failed to delete segments of trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete trip dependencies",
		})
	}

	if err := tx.Unscoped().Where("trip_id = ?", trip.ID).Delete(&models.TripShare{}).Error; err != nil {
		tx.Rollback()
		tc.Logger.Printf("Failed to delete shares of trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete trip dependencies",
		})
	}

	if err := tx.Unscoped().Delete(&models.Trip{}, trip.ID).Error; err != nil {
		tx.Rollback()
		tc.Logger.Printf("Failed to delete trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete trip",
		})
	}

	if err := tx.Commit().Error; err != nil {
		tc.Logger.Printf("Transaction commit failed for trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to complete deletion",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Trip deleted successfully",
	})
}
