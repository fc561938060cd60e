package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wayplan/models"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrNoAPIKey means no provider API key is configured anywhere; lookups are
// skipped rather than failed in that case.
var ErrNoAPIKey = errors.New("flight provider API key not configured")

// FlightData is the normalized subset of a provider flight record that gets
// written onto a segment.
type FlightData struct {
	Status        *string
	Airline       *string
	Departure     map[string]interface{}
	Arrival       map[string]interface{}
	DelayMinutes  *int
	GateDeparture *string
	GateArrival   *string
	TerminalDep   *string
	TerminalArr   *string
	Baggage       *string
	Meta          map[string]interface{}
}

// FlightLookup is the provider interface consumed by the enrichment engine.
// A nil FlightData with a nil error means the flight was not found.
type FlightLookup interface {
	FetchByNumberAndDate(flightNumber, date string) (*FlightData, error)
}

// FlightClient looks up flights against the AeroDataBox API. The API key is
// resolved per call: environment first, then the persisted settings store, so
// an admin can rotate the key at runtime without a restart.
type FlightClient struct {
	DB         *gorm.DB
	BaseURL    string
	EnvAPIKey  string
	HTTPClient *http.Client
}

func NewFlightClient(db *gorm.DB, baseURL, envAPIKey string) *FlightClient {
	return &FlightClient{
		DB:        db,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		EnvAPIKey: envAPIKey,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (fc *FlightClient) apiKey() (string, error) {
	if fc.EnvAPIKey != "" {
		return fc.EnvAPIKey, nil
	}
	key, err := models.GetSetting(fc.DB, models.SettingFlightAPIKey)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// FetchByNumberAndDate fetches a flight by number and calendar date
// (YYYY-MM-DD). Returns (nil, nil) when the provider knows no such flight.
func (fc *FlightClient) FetchByNumberAndDate(flightNumber, date string) (*FlightData, error) {
	apiKey, err := fc.apiKey()
	if err != nil {
		if errors.Is(err, ErrNoAPIKey) {
			logrus.WithField("flight_number", flightNumber).
				Warn("flight provider API key missing; skipping lookup")
		}
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/flights/number/%s/%s?withLeg=true",
		fc.BaseURL, url.PathEscape(flightNumber), url.PathEscape(date))

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("Accept", "application/json")

	res, err := fc.HTTPClient.Do(req)
	if err != nil {
		fc.captureProviderError(flightNumber, date, err)
		return nil, fmt.Errorf("flight provider request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	// Not-found is only ever the provider answering with an empty flights
	// array; any non-2xx status, 404 included, is a lookup error.
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		err := fmt.Errorf("flight provider returned %d: %s", res.StatusCode, truncate(string(body), 200))
		fc.captureProviderError(flightNumber, date, err)
		return nil, err
	}
	if !strings.Contains(res.Header.Get("Content-Type"), "application/json") {
		err := fmt.Errorf("flight provider returned non-JSON response: %s", truncate(string(body), 200))
		fc.captureProviderError(flightNumber, date, err)
		return nil, err
	}

	var payload struct {
		Flights []json.RawMessage `json:"flights"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		err = fmt.Errorf("failed to parse provider response: %w", err)
		fc.captureProviderError(flightNumber, date, err)
		return nil, err
	}
	if len(payload.Flights) == 0 {
		return nil, nil
	}

	return normalizeFlight(payload.Flights[0])
}

type aeroLeg struct {
	ScheduledTimeLocal *string `json:"scheduledTimeLocal"`
	ScheduledTimeUtc   *string `json:"scheduledTimeUtc"`
	ActualTimeUtc      *string `json:"actualTimeUtc"`
	Terminal           *string `json:"terminal"`
	Gate               *string `json:"gate"`
	Baggage            *string `json:"baggage"`
}

type aeroFlight struct {
	Status  *string `json:"status"`
	Airline *struct {
		Name *string `json:"name"`
	} `json:"airline"`
	Departure *aeroLeg `json:"departure"`
	Arrival   *aeroLeg `json:"arrival"`
	Delay     *float64 `json:"delay"`
}

func normalizeFlight(raw json.RawMessage) (*FlightData, error) {
	var f aeroFlight
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse provider flight record: %w", err)
	}

	var meta map[string]interface{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse provider flight record: %w", err)
	}

	data := &FlightData{
		Status: f.Status,
		Meta:   meta,
	}
	if f.Airline != nil {
		data.Airline = f.Airline.Name
	}
	if f.Delay != nil {
		delay := int(*f.Delay + 0.5)
		data.DelayMinutes = &delay
	}
	if f.Departure != nil {
		data.GateDeparture = f.Departure.Gate
		data.TerminalDep = f.Departure.Terminal
		if block, ok := meta["departure"].(map[string]interface{}); ok {
			data.Departure = block
		}
	}
	if f.Arrival != nil {
		data.GateArrival = f.Arrival.Gate
		data.TerminalArr = f.Arrival.Terminal
		data.Baggage = f.Arrival.Baggage
		if block, ok := meta["arrival"].(map[string]interface{}); ok {
			data.Arrival = block
		}
	}
	return data, nil
}

func (fc *FlightClient) captureProviderError(flightNumber, date string, err error) {
	logrus.WithFields(logrus.Fields{
		"flight_number": flightNumber,
		"date":          date,
	}).Warnf("flight provider lookup failed: %v", err)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", "flight_client")
		scope.SetExtra("flight_number", flightNumber)
		scope.SetExtra("date", date)
		sentry.CaptureException(err)
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
