package controller

import (
	"errors"

	"wayplan/models"
	"wayplan/utils"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AddShareRequest struct {
	UserID     *uint                 `json:"user_id"`
	Email      *string               `json:"email"`
	Permission models.TripPermission `json:"permission" validate:"required,oneof=view edit"`
}

// ListShares returns the trip's collaborators. Owner only.
func (tc *TripController) ListShares(c *fiber.Ctx) error {
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

	var shares []models.TripShare
	if err := tc.DB.Preload("User").Where("trip_id = ?", trip.ID).Find(&shares).Error; err != nil {
		tc.Logger.Printf("Failed to list shares of trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list shares",
		})
	}

	return c.JSON(shares)
}

// AddShare grants or updates a collaborator's access. The target is named by
// id or email, exactly one of the two. Sharing with the same user again
// overwrites the stored permission instead of duplicating the row.
func (tc *TripController) AddShare(c *fiber.Ctx) error {
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

	var req AddShareRequest
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

	if (req.UserID == nil) == (req.Email == nil) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Provide exactly one of user_id or email",
		})
	}

	var target models.User
	if req.UserID != nil {
		err = tc.DB.First(&target, *req.UserID).Error
	} else {
		if err := checkmail.ValidateFormat(*req.Email); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid email address",
			})
		}
		err = tc.DB.Where("email = ?", *req.Email).First(&target).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		tc.Logger.Printf("Failed to resolve share target for trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add share",
		})
	}

	if target.ID == trip.UserID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User already owns this trip",
		})
	}

	// Upsert on (trip, user): re-sharing updates the permission in place.
	var share models.TripShare
	err = tc.DB.Where("trip_id = ? AND user_id = ?", trip.ID, target.ID).First(&share).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		share = models.TripShare{
			TripID:     trip.ID,
			UserID:     target.ID,
			Permission: req.Permission,
		}
		err = tc.DB.Create(&share).Error
	case err == nil:
		err = tc.DB.Model(&share).Update("permission", req.Permission).Error
		share.Permission = req.Permission
	}
	if err != nil {
		tc.Logger.Printf("Failed to upsert share on trip %d: %v", trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add share",
		})
	}

	share.User = target
	return c.Status(fiber.StatusCreated).JSON(share)
}

// RemoveShare revokes a collaborator's access. The share must belong to the
// trip named in the path, which blocks cross-trip id guessing.
func (tc *TripController) RemoveShare(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	tripID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid trip ID",
		})
	}
	shareID, err := c.ParamsInt("shareId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid share ID",
		})
	}

	trip, err := requireTripPermission(tc.DB, uint(tripID), user, models.PermissionOwner)
	if err != nil {
		return respondError(c, err)
	}

	var share models.TripShare
	if err := tc.DB.Where("id = ? AND trip_id = ?", shareID, trip.ID).First(&share).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Share not found",
		})
	}

	if err := tc.DB.Unscoped().Delete(&share).Error; err != nil {
		tc.Logger.Printf("Failed to remove share %d from trip %d: %v", share.ID, trip.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove share",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Share removed successfully",
	})
}
