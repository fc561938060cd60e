package models

import (
	"time"

	"gorm.io/gorm"
)

type SegmentType string

const (
	SegmentTransport     SegmentType = "transport"
	SegmentAccommodation SegmentType = "accommodation"
	SegmentActivity      SegmentType = "activity"
	SegmentNote          SegmentType = "note"
)

type TransportMode string

const (
	TransportFlight    TransportMode = "flight"
	TransportTrain     TransportMode = "train"
	TransportBus       TransportMode = "bus"
	TransportTaxi      TransportMode = "taxi"
	TransportRideshare TransportMode = "rideshare"
	TransportDrive     TransportMode = "drive"
)

// Flight fetch statuses written by the enrichment engine.
const (
	FlightFetchOK       = "ok"
	FlightFetchNotFound = "not_found"
	FlightFetchError    = "error"
)

// Segment is a single itinerary entry belonging to exactly one trip.
//
// The Flight* fields below SortOrder are owned by the flight enrichment
// engine; request payloads never carry them and controllers never write them.
type Segment struct {
	gorm.Model
	TripID uint `gorm:"not null;index" json:"trip_id"`

	Type             SegmentType    `gorm:"not null" json:"type"`
	TransportMode    *TransportMode `json:"transport_mode,omitempty"`
	Title            string         `gorm:"not null" json:"title"`
	StartTime        time.Time      `gorm:"index" json:"start_time"`
	EndTime          *time.Time     `json:"end_time,omitempty"`
	Location         *string        `json:"location,omitempty"`
	Provider         *string        `json:"provider,omitempty"`
	ConfirmationCode *string        `json:"confirmation_code,omitempty"`

	// Details is a client-owned opaque document, stored untouched.
	Details   map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"details,omitempty"`
	SortOrder int                    `gorm:"default:0" json:"sort_order"`

	// Flight booking fields (client supplied, only meaningful for flights)
	FlightNumber  *string `json:"flight_number,omitempty"`
	SeatNumber    *string `json:"seat_number,omitempty"`
	PassengerName *string `json:"passenger_name,omitempty"`

	// Enrichment fields (engine owned)
	FlightStatus       *string                `json:"flight_status,omitempty"`
	FlightAirline      *string                `json:"flight_airline,omitempty"`
	FlightDeparture    map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"flight_departure,omitempty"`
	FlightArrival      map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"flight_arrival,omitempty"`
	FlightDelayMinutes *int                   `json:"flight_delay_minutes,omitempty"`
	FlightGateDeparture *string               `json:"flight_gate_departure,omitempty"`
	FlightGateArrival  *string                `json:"flight_gate_arrival,omitempty"`
	FlightTerminalDep  *string                `json:"flight_terminal_dep,omitempty"`
	FlightTerminalArr  *string                `json:"flight_terminal_arr,omitempty"`
	FlightBaggage      *string                `json:"flight_baggage,omitempty"`
	FlightMeta         map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"flight_meta,omitempty"`

	FlightLastFetchedAt   *time.Time `json:"flight_last_fetched_at,omitempty"`
	FlightLastFetchStatus *string    `json:"flight_last_fetch_status,omitempty"`
	FlightAutoSync        bool       `gorm:"default:false;index" json:"flight_auto_sync"`

	// Relations
	Attachments []Attachment `gorm:"foreignKey:SegmentID" json:"attachments,omitempty"`
}

// IsFlight reports whether the segment is a flight with enough data to be
// enriched: flight transport mode plus a flight number.
func (s *Segment) IsFlight() bool {
	return s.TransportMode != nil && *s.TransportMode == TransportFlight &&
		s.FlightNumber != nil && *s.FlightNumber != ""
}
