package controller_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"wayplan/models"
	"wayplan/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segmentsPath(trip *models.Trip) string {
	return fmt.Sprintf("/api/v1/trips/%d/segments", trip.ID)
}

func TestCreateSegmentPermissions(t *testing.T) {
	app, db := setupApp(t, nil)
	owner := createUser(t, db, "owner@example.com", models.RoleMember, models.StatusActive)
	viewer := createUser(t, db, "viewer@example.com", models.RoleMember, models.StatusActive)
	editor := createUser(t, db, "editor@example.com", models.RoleMember, models.StatusActive)

	trip := createTrip(t, db, owner, "Spain")
	shareTrip(t, db, trip, viewer, models.PermissionView)
	shareTrip(t, db, trip, editor, models.PermissionEdit)

	payload := map[string]interface{}{
		"type":       "activity",
		"title":      "Museum",
		"start_time": "2026-09-02T10:00:00Z",
	}

	t.Run("viewer may not create", func(t *testing.T) {
		res := doJSON(t, app, http.MethodPost, segmentsPath(trip), tokenFor(t, viewer), payload)
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("editor creates and gets the trip aggregate back", func(t *testing.T) {
		res := doJSON(t, app, http.MethodPost, segmentsPath(trip), tokenFor(t, editor), payload)
		require.Equal(t, http.StatusCreated, res.StatusCode)
		body := decodeBody(t, res)
		segments, ok := body["segments"].([]interface{})
		require.True(t, ok)
		require.Len(t, segments, 1)
	})

	t.Run("rejects unknown segment type", func(t *testing.T) {
		res := doJSON(t, app, http.MethodPost, segmentsPath(trip), tokenFor(t, owner), map[string]interface{}{
			"type":       "teleport",
			"title":      "Beam me up",
			"start_time": "2026-09-02T10:00:00Z",
		})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestCreateFlightSegmentEnriches(t *testing.T) {
	status := "Expected"
	airline := "Lufthansa"
	lookup := &fakeLookup{data: &utils.FlightData{
		Status:  &status,
		Airline: &airline,
		Departure: map[string]interface{}{
			"airport": "FRA",
		},
	}}
	app, db := setupApp(t, lookup)
	owner := createUser(t, db, "owner@example.com", models.RoleMember, models.StatusActive)
	trip := createTrip(t, db, owner, "Germany")

	res := doJSON(t, app, http.MethodPost, segmentsPath(trip), tokenFor(t, owner), map[string]interface{}{
		"type":           "transport",
		"transport_mode": "flight",
		"title":          "FRA hop",
		"start_time":     time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"flight_number":  "LH123",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var segment models.Segment
	require.NoError(t, db.Where("trip_id = ?", trip.ID).First(&segment).Error)
	require.NotNil(t, segment.FlightLastFetchStatus)
	assert.Equal(t, models.FlightFetchOK, *segment.FlightLastFetchStatus)
	require.NotNil(t, segment.FlightAirline)
	assert.Equal(t, "Lufthansa", *segment.FlightAirline)
	assert.True(t, segment.FlightAutoSync)
}

func TestCreateFlightSegmentSurvivesProviderError(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("provider down")}
	app, db := setupApp(t, lookup)
	owner := createUser(t, db, "owner@example.com", models.RoleMember, models.StatusActive)
	trip := createTrip(t, db, owner, "Germany")

	res := doJSON(t, app, http.MethodPost, segmentsPath(trip), tokenFor(t, owner), map[string]interface{}{
		"type":           "transport",
		"transport_mode": "flight",
		"title":          "Doomed hop",
		"start_time":     time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"flight_number":  "LH999",
	})
	// The create still succeeds; the failure is recorded on the segment.
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var segment models.Segment
	require.NoError(t, db.Where("trip_id = ?", trip.ID).First(&segment).Error)
	require.NotNil(t, segment.FlightLastFetchStatus)
	assert.Equal(t, models.FlightFetchError, *segment.FlightLastFetchStatus)
}

func TestUpdateSegment(t *testing.T) {
	app, db := setupApp(t, nil)
	owner := createUser(t, db, "owner@example.com", models.RoleMember, models.StatusActive)
	trip := createTrip(t, db, owner, "Spain")
	segment := &models.Segment{TripID: trip.ID, Type: models.SegmentActivity, Title: "Old", StartTime: time.Now()}
	require.NoError(t, db.Create(segment).Error)
	token := tokenFor(t, owner)
	path := fmt.Sprintf("/api/v1/segments/%d", segment.ID)

	t.Run("partial update", func(t *testing.T) {
		res := doJSON(t, app, http.MethodPut, path, token, map[string]interface{}{
			"title":   "New",
			"details": map[string]interface{}{"tickets": float64(2)},
		})
		require.Equal(t, http.StatusOK, res.StatusCode)

		var got models.Segment
		require.NoError(t, db.First(&got, segment.ID).Error)
		assert.Equal(t, "New", got.Title)
		assert.Equal(t, float64(2), got.Details["tickets"])
		assert.Equal(t, models.SegmentActivity, got.Type)
	})

	t.Run("enrichment fields are not client writable", func(t *testing.T) {
		res := doJSON(t, app, http.MethodPut, path, token, map[string]interface{}{
			"flight_status": "Landed",
		})
		require.Equal(t, http.StatusOK, res.StatusCode)

		var got models.Segment
		require.NoError(t, db.First(&got, segment.ID).Error)
		assert.Nil(t, got.FlightStatus)
	})

	t.Run("missing segment is not found", func(t *testing.T) {
		res := doJSON(t, app, http.MethodPut, "/api/v1/segments/99999", token, map[string]interface{}{
			"title": "Ghost",
		})
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestUpdateSegmentClearsEnrichmentWhenNoLongerFlight(t *testing.T) {
	status := "Departed"
	airline := "Lufthansa"
	lookup := &fakeLookup{data: &utils.FlightData{
		Status:  &status,
		Airline: &airline,
	}}
	app, db := setupApp(t, lookup)
	owner := createUser(t, db, "owner@example.com", models.RoleMember, models.StatusActive)
	trip := createTrip(t, db, owner, "Germany")
	token := tokenFor(t, owner)

	res := doJSON(t, app, http.MethodPost, segmentsPath(trip), token, map[string]interface{}{
		"type":           "transport",
		"transport_mode": "flight",
		"title":          "FRA hop",
		"start_time":     time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"flight_number":  "LH123",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var segment models.Segment
	require.NoError(t, db.Where("trip_id = ?", trip.ID).First(&segment).Error)
	require.NotNil(t, segment.FlightAirline)
	require.True(t, segment.FlightAutoSync)

	// Rebooked onto a train: the flight data must not keep rendering.
	updateRes := doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v1/segments/%d", segment.ID), token, map[string]interface{}{
		"transport_mode": "train",
		"title":          "Train instead",
	})
	require.Equal(t, http.StatusOK, updateRes.StatusCode)

	var got models.Segment
	require.NoError(t, db.First(&got, segment.ID).Error)
	assert.Nil(t, got.FlightStatus)
	assert.Nil(t, got.FlightAirline)
	assert.Nil(t, got.FlightLastFetchStatus)
	assert.Nil(t, got.FlightLastFetchedAt)
	assert.False(t, got.FlightAutoSync)
}

func TestDeleteSegmentCascadesAttachments(t *testing.T) {
	app, db := setupApp(t, nil)
	owner := createUser(t, db, "owner@example.com", models.RoleMember, models.StatusActive)
	viewer := createUser(t, db, "viewer@example.com", models.RoleMember, models.StatusActive)

	trip := createTrip(t, db, owner, "Spain")
	share := shareTrip(t, db, trip, viewer, models.PermissionView)

	segment := &models.Segment{TripID: trip.ID, Type: models.SegmentNote, Title: "Scratch", StartTime: time.Now()}
	require.NoError(t, db.Create(segment).Error)
	att := &models.Attachment{SegmentID: &segment.ID, Path: "/uploads/attachments/gone.pdf", OriginalName: "gone.pdf"}
	require.NoError(t, db.Create(att).Error)

	path := fmt.Sprintf("/api/v1/segments/%d", segment.ID)

	t.Run("view grant cannot delete", func(t *testing.T) {
		res := doJSON(t, app, http.MethodDelete, path, tokenFor(t, viewer), nil)
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("upgraded to edit the same user can", func(t *testing.T) {
		require.NoError(t, db.Model(share).Update("permission", models.PermissionEdit).Error)

		res := doJSON(t, app, http.MethodDelete, path, tokenFor(t, viewer), nil)
		require.Equal(t, http.StatusOK, res.StatusCode)

		var segments, attachments int64
		require.NoError(t, db.Unscoped().Model(&models.Segment{}).Where("id = ?", segment.ID).Count(&segments).Error)
		require.NoError(t, db.Unscoped().Model(&models.Attachment{}).Where("segment_id = ?", segment.ID).Count(&attachments).Error)
		assert.Zero(t, segments)
		assert.Zero(t, attachments)
	})
}

func TestSyncSegmentNow(t *testing.T) {
	lookup := &fakeLookup{}
	app, db := setupApp(t, lookup)
	owner := createUser(t, db, "owner@example.com", models.RoleMember, models.StatusActive)
	trip := createTrip(t, db, owner, "Germany")

	mode := models.TransportFlight
	number := "LH123"
	segment := &models.Segment{
		TripID:        trip.ID,
		Type:          models.SegmentTransport,
		TransportMode: &mode,
		Title:         "FRA hop",
		StartTime:     time.Now().Add(24 * time.Hour),
		FlightNumber:  &number,
	}
	require.NoError(t, db.Create(segment).Error)

	// Lookup returns nothing; sync records not_found but still responds 200.
	res := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/segments/%d/sync", segment.ID), tokenFor(t, owner), nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	body := decodeBody(t, res)
	assert.Equal(t, models.FlightFetchNotFound, body["flight_last_fetch_status"])
}
