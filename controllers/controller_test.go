package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"wayplan/config"
	"wayplan/models"
	"wayplan/routes"
	"wayplan/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:ctrltest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))
	return db
}

type fakeLookup struct {
	data *utils.FlightData
	err  error
}

func (f *fakeLookup) FetchByNumberAndDate(flightNumber, date string) (*utils.FlightData, error) {
	return f.data, f.err
}

// setupApp wires the full route table against a fresh in-memory database.
// The flight provider is faked; pass nil for a provider that finds nothing.
func setupApp(t *testing.T, lookup utils.FlightLookup) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	config.DB = db
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.RateLimitLogin = 100000
	config.AppConfig.Redis.Enabled = false
	config.AppConfig.UploadDir = t.TempDir()
	require.NoError(t, utils.EnsureUploadDirs(config.AppConfig.UploadDir))

	if lookup == nil {
		lookup = &fakeLookup{}
	}
	enricher := utils.NewFlightEnricher(db, lookup)

	app := fiber.New()
	routes.SetupRoutes(app, db, enricher, lookup)
	return app, db
}

func createUser(t *testing.T, db *gorm.DB, email string, role models.UserRole, status models.UserStatus) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       status,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(user)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	return res
}

func decodeBody(t *testing.T, res *http.Response) map[string]interface{} {
	t.Helper()
	defer res.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func createTrip(t *testing.T, db *gorm.DB, owner *models.User, title string) *models.Trip {
	t.Helper()
	trip := &models.Trip{
		UserID: owner.ID,
		Title:  title,
	}
	require.NoError(t, db.Create(trip).Error)
	return trip
}

func shareTrip(t *testing.T, db *gorm.DB, trip *models.Trip, user *models.User, permission models.TripPermission) *models.TripShare {
	t.Helper()
	share := &models.TripShare{
		TripID:     trip.ID,
		UserID:     user.ID,
		Permission: permission,
	}
	require.NoError(t, db.Create(share).Error)
	return share
}
