package controller_test

import (
	"errors"
	"net/http"
	"testing"

	"wayplan/models"
	"wayplan/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupFlight(t *testing.T) {
	t.Run("requires flight number and date", func(t *testing.T) {
		app, db := setupApp(t, nil)
		user := createUser(t, db, "user@example.com", models.RoleMember, models.StatusActive)

		res := doJSON(t, app, http.MethodGet, "/api/v1/flights/lookup?flightNumber=LH123", tokenFor(t, user), nil)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("found flight is mapped to the client shape", func(t *testing.T) {
		status := "EnRoute"
		airline := "KLM"
		delay := 12
		app, db := setupApp(t, &fakeLookup{data: &utils.FlightData{
			Status:       &status,
			Airline:      &airline,
			DelayMinutes: &delay,
		}})
		user := createUser(t, db, "user@example.com", models.RoleMember, models.StatusActive)

		res := doJSON(t, app, http.MethodGet, "/api/v1/flights/lookup?flightNumber=KL605&date=2026-09-01", tokenFor(t, user), nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		body := decodeBody(t, res)
		assert.Equal(t, true, body["found"])
		data, ok := body["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "EnRoute", data["flightStatus"])
		assert.Equal(t, "KLM", data["flightAirline"])
		assert.Equal(t, float64(12), data["flightDelayMinutes"])
	})

	t.Run("unknown flight", func(t *testing.T) {
		app, db := setupApp(t, nil)
		user := createUser(t, db, "user@example.com", models.RoleMember, models.StatusActive)

		res := doJSON(t, app, http.MethodGet, "/api/v1/flights/lookup?flightNumber=XX000&date=2026-09-01", tokenFor(t, user), nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		body := decodeBody(t, res)
		assert.Equal(t, false, body["found"])
	})

	t.Run("provider failure is a bad gateway", func(t *testing.T) {
		app, db := setupApp(t, &fakeLookup{err: errors.New("upstream timeout")})
		user := createUser(t, db, "user@example.com", models.RoleMember, models.StatusActive)

		res := doJSON(t, app, http.MethodGet, "/api/v1/flights/lookup?flightNumber=KL605&date=2026-09-01", tokenFor(t, user), nil)
		assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	})
}
