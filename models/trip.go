package models

import (
	"time"

	"gorm.io/gorm"
)

// Trip is a top-level shared itinerary owned by one user. Other users gain
// access to it only through TripShare rows.
type Trip struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Title        string  `gorm:"not null" json:"title"`
	MainLocation *string `json:"main_location,omitempty"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Notes        *string `json:"notes,omitempty"`
	ImagePath    *string `json:"image_path,omitempty"`

	// Planning is a client-owned document (packing lists, ideas, tasks).
	// It is stored as-is and never interpreted server side.
	Planning map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"planning,omitempty"`

	// Relations
	Segments    []Segment    `gorm:"foreignKey:TripID" json:"segments,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:TripID" json:"attachments,omitempty"`
	Shares      []TripShare  `gorm:"foreignKey:TripID" json:"shares,omitempty"`

	// AccessPermission is the caller's effective permission on this trip,
	// filled in per request and never persisted.
	AccessPermission TripPermission `gorm:"-" json:"access_permission,omitempty"`
}

// TripShare grants one user view or edit access to one trip. At most one row
// exists per (trip, user) pair; re-sharing updates the existing row. The trip
// owner is never represented as a share.
type TripShare struct {
	gorm.Model
	TripID     uint           `gorm:"not null;uniqueIndex:idx_trip_user" json:"trip_id"`
	UserID     uint           `gorm:"not null;uniqueIndex:idx_trip_user" json:"user_id"`
	Permission TripPermission `gorm:"not null" json:"permission"`

	User User `json:"user,omitempty"`
}
