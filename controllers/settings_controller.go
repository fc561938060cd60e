package controller

import (
	"wayplan/config"
	"wayplan/models"
	"wayplan/utils"

	"github.com/gofiber/fiber/v2"
)

type UpdateFlightAPIKeyRequest struct {
	Value string `json:"value" validate:"required"`
}

// GetFlightAPIKey reports whether a provider key is configured and where it
// comes from. The key itself is never echoed back.
func GetFlightAPIKey(c *fiber.Ctx) error {
	if config.AppConfig.FlightAPIKey != "" {
		return c.JSON(fiber.Map{"configured": true, "source": "env"})
	}

	value, err := models.GetSetting(config.DB, models.SettingFlightAPIKey)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read settings",
		})
	}
	if value == "" {
		return c.JSON(fiber.Map{"configured": false})
	}
	return c.JSON(fiber.Map{"configured": true, "source": "settings"})
}

// SetFlightAPIKey stores the provider key in the settings table. The
// environment variable, when set, still wins at lookup time.
func SetFlightAPIKey(c *fiber.Ctx) error {
	var req UpdateFlightAPIKeyRequest
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

	if err := models.SetSetting(config.DB, models.SettingFlightAPIKey, req.Value); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save setting",
		})
	}

	return c.JSON(fiber.Map{"configured": true, "source": "settings"})
}

func DeleteFlightAPIKey(c *fiber.Ctx) error {
	if err := models.DeleteSetting(config.DB, models.SettingFlightAPIKey); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete setting",
		})
	}
	return c.JSON(fiber.Map{"configured": config.AppConfig.FlightAPIKey != ""})
}
