package controller

import (
	"wayplan/models"
	"wayplan/utils"

	"github.com/gofiber/fiber/v2"
)

// AddSegmentAttachment stores an uploaded file against a segment.
func (sc *SegmentController) AddSegmentAttachment(c *fiber.Ctx) error {
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

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	path, err := utils.SaveUpload(c, file, sc.UploadDir, utils.UploadAttachmentsDir)
	if err != nil {
		sc.Logger.Printf("Failed to store attachment for segment %d: %v", segment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store attachment",
		})
	}

	mimeType := file.Header.Get("Content-Type")
	size := file.Size
	attachment := models.Attachment{
		SegmentID:    &segment.ID,
		Path:         path,
		OriginalName: file.Filename,
		MimeType:     &mimeType,
		Size:         &size,
	}

	if err := sc.DB.Create(&attachment).Error; err != nil {
		sc.Logger.Printf("Failed to create attachment for segment %d: %v", segment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create attachment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(attachment)
}

// DeleteSegmentAttachment removes a segment attachment. The lookup is scoped
// to the segment so cross-owner attachment ids read as not-found.
func (sc *SegmentController) DeleteSegmentAttachment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	segmentID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid segment ID",
		})
	}
	attachmentID, err := c.ParamsInt("attachmentId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid attachment ID",
		})
	}

	segment, err := sc.loadSegment(uint(segmentID), user, models.PermissionEdit)
	if err != nil {
		return respondError(c, err)
	}

	var attachment models.Attachment
	if err := sc.DB.Where("id = ? AND segment_id = ?", attachmentID, segment.ID).First(&attachment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Attachment not found",
		})
	}

	utils.RemoveFileIfExists(sc.UploadDir, attachment.Path)

	if err := sc.DB.Unscoped().Delete(&attachment).Error; err != nil {
		sc.Logger.Printf("Failed to delete attachment %d: %v", attachment.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete attachment",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Attachment deleted successfully",
	})
}
