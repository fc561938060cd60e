package controller

import (
	"wayplan/models"
	"wayplan/utils"

	"github.com/gofiber/fiber/v2"
)

// AddTripAttachment stores an uploaded file against the trip itself.
func (tc *TripController) AddTripAttachment(c *fiber.Ctx) error {
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

	path, err := utils.SaveUpload(c, file, tc.UploadDir, utils.UploadAttachmentsDir)
	if err != nil {
		tc.Logger.Printf("Failed to store attachment for trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store attachment",
		})
	}

	mimeType := file.Header.Get("Content-Type")
	size := file.Size
	attachment := models.Attachment{
		TripID:       &trip.ID,
		Path:         path,
		OriginalName: file.Filename,
		MimeType:     &mimeType,
		Size:         &size,
	}

	if err := tc.DB.Create(&attachment).Error; err != nil {
		tc.Logger.Printf("Failed to create attachment for trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create attachment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(attachment)
}

// DeleteTripAttachment removes a trip-level attachment. The row lookup is
// scoped to the trip so an attachment id from another owner is a not-found,
// and the file unlink is best-effort only.
func (tc *TripController) DeleteTripAttachment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	tripID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid trip ID",
		})
	}
	attachmentID, err := c.ParamsInt("attachmentId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid attachment ID",
		})
	}

	trip, err := requireTripPermission(tc.DB, uint(tripID), user, models.PermissionEdit)
	if err != nil {
		return respondError(c, err)
	}

	var attachment models.Attachment
	if err := tc.DB.Where("id = ? AND trip_id = ?", attachmentID, trip.ID).First(&attachment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Attachment not found",
		})
	}

	utils.RemoveFileIfExists(tc.UploadDir, attachment.Path)

	if err := tc.DB.Unscoped().Delete(&attachment).Error; err != nil {
		tc.Logger.Printf("Failed to delete attachment %d: %v", attachment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete attachment",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Attachment deleted successfully",
	})
}
