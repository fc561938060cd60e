package controller

import (
	"wayplan/config"
	"wayplan/models"
	"wayplan/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// Register creates a new account. The very first account becomes an active
// admin; everyone after that starts as pending and must be approved by an
// admin before they can log in.
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
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

	var existingUser models.User
	if err := config.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleMember,
		Status:       models.StatusPending,
	}

	// The count and create share one transaction so concurrent first
	// registrations cannot both claim the bootstrap admin slot.
	var isFirstUser bool
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var userCount int64
		if err := tx.Model(&models.User{}).Count(&userCount).Error; err != nil {
			return err
		}
		isFirstUser = userCount == 0
		if isFirstUser {
			user.Role = models.RoleAdmin
			user.Status = models.StatusActive
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	if !isFirstUser {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"status":  "pending",
			"message": "Account pending admin approval",
		})
	}

	accessToken, err := utils.GenerateJWTToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		AccessToken: accessToken,
		User:        &user,
	})
}

func Login(c *fiber.Ctx) error {
	var req LoginRequest
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

	var user models.User
	if err := config.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	switch user.Status {
	case models.StatusPending:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Account pending approval",
		})
	case models.StatusRejected:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Account rejected",
		})
	}

	accessToken, err := utils.GenerateJWTToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.JSON(AuthResponse{
		AccessToken: accessToken,
		User:        &user,
	})
}

func GetCurrentUser(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return c.JSON(user)
}

// RecoverAdmin is the explicit lockout escape hatch: a user with valid
// credentials can promote themselves to active admin, but only while zero
// active admins exist. The promotion is recorded in the audit log. This
// replaces the older behavior of silently promoting pending users at login.
func RecoverAdmin(c *fiber.Ctx) error {
	var req LoginRequest
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

	var user models.User
	if err := config.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var activeAdmins int64
		if err := tx.Model(&models.User{}).
			Where("role = ? AND status = ?", models.RoleAdmin, models.StatusActive).
			Count(&activeAdmins).Error; err != nil {
			return err
		}
		if activeAdmins > 0 {
			return forbiddenErr("Active admins exist; recovery is not available")
		}

		if err := tx.Model(&user).Updates(map[string]interface{}{
			"role":   models.RoleAdmin,
			"status": models.StatusActive,
		}).Error; err != nil {
			return err
		}

		return tx.Create(&models.AuditLog{
			UserID: user.ID,
			Action: "admin_recovery",
			Detail: "promoted to active admin via recovery endpoint",
		}).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	user.Role = models.RoleAdmin
	user.Status = models.StatusActive

	accessToken, err := utils.GenerateJWTToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.JSON(AuthResponse{
		AccessToken: accessToken,
		User:        &user,
	})
}
