package controller_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wayplan/config"
	"wayplan/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTripValidation(t *testing.T) {
	app, db := setupApp(t, nil)
	owner := createUser(t, db, "owner@example.com", models.RoleMember, models.StatusActive)
	token := tokenFor(t, owner)

	t.Run("creates a trip", func(t *testing.T) {
		res := doJSON(t, app, http.MethodPost, "/api/v1/trips", token, map[string]interface{}{
			"title":      "Portugal",
			"start_date": "2026-09-01",
			"end_date":   "2026-09-10",
		})
		require.Equal(t, http.StatusCreated, res.StatusCode)
		body := decodeBody(t, res)
		assert.Equal(t, "Portugal", body["title"])
		assert.Equal(t, "owner", body["access_permission"])
	})

	t.Run("rejects end before start", func(t *testing.T) {
		res := doJSON(t, app, http.MethodPost, "/api/v1/trips", token, map[string]interface{}{
			"title":      "Backwards",
			"start_date": "2026-09-10",
			"end_date":   "2026-09-01",
		})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		res := doJSON(t, app, http.MethodPost, "/api/v1/trips", token, map[string]interface{}{
			"start_date": "2026-09-01",
			"end_date":   "2026-09-10",
		})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestTripAccessControl(t *testing.T) {
	app, db := setupApp(t, nil)
	owner := createUser(t, db, "owner@example.com", models.RoleMember, models.StatusActive)
	viewer := createUser(t, db, "viewer@example.com", models.RoleMember, models.StatusActive)
	stranger := createUser(t, db, "stranger@example.com", models.RoleMember, models.StatusActive)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin, models.StatusActive)

	trip := createTrip(t, db, owner, "Japan")
	shareTrip(t, db, trip, viewer, models.PermissionView)
	path := fmt.Sprintf("/api/v1/trips/%d", trip.ID)

	t.Run("owner reads own trip", func(t *testing.T) {
		res := doJSON(t, app, http.MethodGet, path, tokenFor(t, owner), nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		body := decodeBody(t, res)
		assert.Equal(t, "owner", body["access_permission"])
	})

	t.Run("viewer reads shared trip", func(t *testing.T) {
		res := doJSON(t, app, http.MethodGet, path, tokenFor(t, viewer), nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		body := decodeBody(t, res)
		assert.Equal(t, "view", body["access_permission"])
	})

	t.Run("stranger gets not found, not forbidden", func(t *testing.T) {
		res := doJSON(t, app, http.MethodGet, path, tokenFor(t, stranger), nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("admin gets owner access without a share", func(t *testing.T) {
		res := doJSON(t, app, http.MethodGet, path, tokenFor(t, admin), nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		body := decodeBody(t, res)
		assert.Equal(t, "owner", body["access_permission"])
	})

	t.Run("viewer cannot update", func(t *testing.T) {
		res := doJSON(t, app, http.MethodPut, path, tokenFor(t, viewer), map[string]interface{}{
			"title": "Hijacked",
		})
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("missing trip reads as not found", func(t *testing.T) {
		res := doJSON(t, app, http.MethodGet, "/api/v1/trips/99999", tokenFor(t, owner), nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestListTripsIncludesShared(t *testing.T) {
	app, db := setupApp(t, nil)
	owner := createUser(t, db, "owner@example.com", models.RoleMember, models.StatusActive)
	friend := createUser(t, db, "friend@example.com", models.RoleMember, models.StatusActive)

	createTrip(t, db, friend, "Mine")
	theirs := createTrip(t, db, owner, "Theirs")
	shareTrip(t, db, theirs, friend, models.PermissionEdit)
	createTrip(t, db, owner, "Private")

	res := doJSON(t, app, http.MethodGet, "/api/v1/trips", tokenFor(t, friend), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	defer res.Body.Close()
	var trips []map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&trips))
	require.Len(t, trips, 2)

	byTitle := map[string]string{}
	for _, trip := range trips {
		permission, _ := trip["access_permission"].(string)
		byTitle[trip["title"].(string)] = permission
	}
	assert.Equal(t, "owner", byTitle["Mine"])
	assert.Equal(t, "edit", byTitle["Theirs"])
}

func TestUpdatePlanningRoundTrip(t *testing.T) {
	app, db := setupApp(t, nil)
	owner := createUser(t, db, "owner@example.com", models.RoleMember, models.StatusActive)
	trip := createTrip(t, db, owner, "Norway")
	token := tokenFor(t, owner)

	planning := map[string]interface{}{
		"packing": []interface{}{"boots", "jacket"},
		"ideas":   map[string]interface{}{"day1": "fjord hike"},
	}
	res := doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v1/trips/%d/planning", trip.ID), token, map[string]interface{}{
		"planning": planning,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var got models.Trip
	require.NoError(t, db.First(&got, trip.ID).Error)
	assert.Equal(t, "fjord hike", got.Planning["ideas"].(map[string]interface{})["day1"])
}

func TestDeleteTripCascades(t *testing.T) {
	app, db := setupApp(t, nil)
	owner := createUser(t, db, "owner@example.com", models.RoleMember, models.StatusActive)
	editor := createUser(t, db, "editor@example.com", models.RoleMember, models.StatusActive)

	trip := createTrip(t, db, owner, "Doomed")
	shareTrip(t, db, trip, editor, models.PermissionEdit)

	seg1 := &models.Segment{TripID: trip.ID, Type: models.SegmentActivity, Title: "One", StartTime: time.Now()}
	seg2 := &models.Segment{TripID: trip.ID, Type: models.SegmentNote, Title: "Two", StartTime: time.Now()}
	require.NoError(t, db.Create(seg1).Error)
	require.NoError(t, db.Create(seg2).Error)

	// One attachment with a real backing file, one whose file is already
	// gone so the unlink fails; the cascade must not care.
	realFile := filepath.Join(config.AppConfig.UploadDir, "attachments", "real.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(realFile), 0o755))
	require.NoError(t, os.WriteFile(realFile, []byte("data"), 0o644))

	tripAtt := &models.Attachment{TripID: &trip.ID, Path: "/uploads/attachments/real.pdf", OriginalName: "real.pdf"}
	segAtt := &models.Attachment{SegmentID: &seg1.ID, Path: "/uploads/attachments/ghost.pdf", OriginalName: "ghost.pdf"}
	require.NoError(t, db.Create(tripAtt).Error)
	require.NoError(t, db.Create(segAtt).Error)

	path := fmt.Sprintf("/api/v1/trips/%d", trip.ID)

	t.Run("edit grant is not enough to delete the trip", func(t *testing.T) {
		res := doJSON(t, app, http.MethodDelete, path, tokenFor(t, editor), nil)
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("owner delete removes every dependent row", func(t *testing.T) {
		res := doJSON(t, app, http.MethodDelete, path, tokenFor(t, owner), nil)
		require.Equal(t, http.StatusOK, res.StatusCode)

		var trips, segments, attachments, shares int64
		require.NoError(t, db.Unscoped().Model(&models.Trip{}).Where("id = ?", trip.ID).Count(&trips).Error)
		require.NoError(t, db.Unscoped().Model(&models.Segment{}).Where("trip_id = ?", trip.ID).Count(&segments).Error)
		require.NoError(t, db.Unscoped().Model(&models.Attachment{}).
			Where("trip_id = ? OR segment_id IN ?", trip.ID, []uint{seg1.ID, seg2.ID}).Count(&attachments).Error)
		require.NoError(t, db.Unscoped().Model(&models.TripShare{}).Where("trip_id = ?", trip.ID).Count(&shares).Error)

		assert.Zero(t, trips)
		assert.Zero(t, segments)
		assert.Zero(t, attachments)
		assert.Zero(t, shares)

		_, err := os.Stat(realFile)
		assert.True(t, os.IsNotExist(err), "backing file should be unlinked")
	})
}
