package utils

import (
	"errors"
	"time"

	"wayplan/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// enrichmentColumns lists every segment field owned by the enrichment engine.
// Updates select all of them so each run is a full overwrite, never a merge.
var enrichmentColumns = []string{
	"flight_status",
	"flight_airline",
	"flight_departure",
	"flight_arrival",
	"flight_delay_minutes",
	"flight_gate_departure",
	"flight_gate_arrival",
	"flight_terminal_dep",
	"flight_terminal_arr",
	"flight_baggage",
	"flight_meta",
	"flight_last_fetched_at",
	"flight_last_fetch_status",
	"flight_auto_sync",
}

// FlightEnricher writes live flight data onto segments. It is the only
// component that touches the segment's enrichment fields, and it never
// returns provider failures to its caller: every outcome is recorded on the
// segment itself through FlightLastFetchStatus.
type FlightEnricher struct {
	DB     *gorm.DB
	Lookup FlightLookup
}

func NewFlightEnricher(db *gorm.DB, lookup FlightLookup) *FlightEnricher {
	return &FlightEnricher{DB: db, Lookup: lookup}
}

// EnrichSegment looks up the segment's flight for its departure date and
// overwrites all enrichment fields with the result. Safe to re-run at any
// time. Non-flight segments and segments without a flight number or start
// time are ignored.
func (fe *FlightEnricher) EnrichSegment(segment *models.Segment) {
	if !segment.IsFlight() || segment.StartTime.IsZero() {
		return
	}

	date := segment.StartTime.UTC().Format("2006-01-02")
	data, err := fe.Lookup.FetchByNumberAndDate(*segment.FlightNumber, date)
	if errors.Is(err, ErrNoAPIKey) {
		// Not configured at all; leave the segment untouched so it is
		// picked up once a key appears.
		return
	}

	now := time.Now().UTC()
	updates := models.Segment{
		FlightLastFetchedAt: &now,
		FlightAutoSync:      true,
	}

	switch {
	case err != nil:
		updates.FlightLastFetchStatus = strPtr(models.FlightFetchError)
	case data == nil:
		updates.FlightLastFetchStatus = strPtr(models.FlightFetchNotFound)
	default:
		updates.FlightLastFetchStatus = strPtr(models.FlightFetchOK)
		updates.FlightStatus = data.Status
		updates.FlightAirline = data.Airline
		updates.FlightDeparture = data.Departure
		updates.FlightArrival = data.Arrival
		updates.FlightDelayMinutes = data.DelayMinutes
		updates.FlightGateDeparture = data.GateDeparture
		updates.FlightGateArrival = data.GateArrival
		updates.FlightTerminalDep = data.TerminalDep
		updates.FlightTerminalArr = data.TerminalArr
		updates.FlightBaggage = data.Baggage
		updates.FlightMeta = data.Meta
	}

	// On error and not-found outcomes only the bookkeeping columns change;
	// previously fetched data stays visible to the user.
	columns := enrichmentColumns
	if updates.FlightLastFetchStatus != nil && *updates.FlightLastFetchStatus != models.FlightFetchOK {
		columns = []string{"flight_last_fetched_at", "flight_last_fetch_status", "flight_auto_sync"}
	}

	if dbErr := fe.DB.Model(&models.Segment{}).
		Where("id = ?", segment.ID).
		Select(columns).
		Updates(&updates).Error; dbErr != nil {
		logrus.WithFields(logrus.Fields{
			"segment_id": segment.ID,
		}).Errorf("failed to persist flight enrichment: %v", dbErr)
	}
}

// ClearEnrichment wipes every engine-owned field from a segment, used when
// a segment stops being a flight so stale provider data never lingers on it.
func (fe *FlightEnricher) ClearEnrichment(segment *models.Segment) {
	if dbErr := fe.DB.Model(&models.Segment{}).
		Where("id = ?", segment.ID).
		Select(enrichmentColumns).
		Updates(&models.Segment{}).Error; dbErr != nil {
		logrus.WithFields(logrus.Fields{
			"segment_id": segment.ID,
		}).Errorf("failed to clear flight enrichment: %v", dbErr)
		return
	}

	segment.FlightStatus = nil
	segment.FlightAirline = nil
	segment.FlightDeparture = nil
	segment.FlightArrival = nil
	segment.FlightDelayMinutes = nil
	segment.FlightGateDeparture = nil
	segment.FlightGateArrival = nil
	segment.FlightTerminalDep = nil
	segment.FlightTerminalArr = nil
	segment.FlightBaggage = nil
	segment.FlightMeta = nil
	segment.FlightLastFetchedAt = nil
	segment.FlightLastFetchStatus = nil
	segment.FlightAutoSync = false
}

func strPtr(s string) *string {
	return &s
}
