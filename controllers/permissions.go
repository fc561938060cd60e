package controller

import (
	"errors"

	"wayplan/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// apiError is a typed operation failure carrying the HTTP status it maps to.
// NotFound covers both missing rows and zero-access callers so unauthorized
// users cannot probe for trip existence. Forbidden means the caller has some
// access but not enough.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return e.Message
}

func notFoundErr(msg string) *apiError {
	return &apiError{Status: fiber.StatusNotFound, Message: msg}
}

func forbiddenErr(msg string) *apiError {
	return &apiError{Status: fiber.StatusForbidden, Message: msg}
}

func validationErr(msg string) *apiError {
	return &apiError{Status: fiber.StatusBadRequest, Message: msg}
}

// respondError writes a typed failure to the client; anything untyped is an
// internal error and surfaces as a bare 500.
func respondError(c *fiber.Ctx, err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Status).JSON(fiber.Map{
			"error": apiErr.Message,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

// requireTripPermission loads the trip together with the caller's share row
// and enforces the required permission level. A missing trip and a caller
// with no access at all both come back as not-found. On success the trip is
// returned with AccessPermission filled in.
func requireTripPermission(db *gorm.DB, tripID uint, user *models.User, required models.TripPermission) (*models.Trip, error) {
	var trip models.Trip
	err := db.Preload("Shares", "user_id = ?", user.ID).First(&trip, tripID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("Trip not found")
		}
		return nil, err
	}

	permission, ok := models.ResolveTripPermission(&trip, user.ID, user.Role)
	if !ok {
		return nil, notFoundErr("Trip not found")
	}
	if !models.PermissionSatisfies(required, permission) {
		return nil, forbiddenErr("Not enough permissions for this trip")
	}

	trip.AccessPermission = permission
	return &trip, nil
}

// getTripWithDetails returns the trip aggregate handed back by most
// mutations: the trip with ordered segments, their attachments, and the
// trip's own attachments.
func getTripWithDetails(db *gorm.DB, tripID uint) (*models.Trip, error) {
	var trip models.Trip
	err := db.
		Preload("Segments", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time ASC")
		}).
		Preload("Segments.Attachments").
		Preload("Attachments").
		First(&trip, tripID).Error
	if err != nil {
		return nil, err
	}
	return &trip, nil
}
