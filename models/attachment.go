package models

import (
	"gorm.io/gorm"
)

// Attachment is a stored file belonging to either a trip or a segment,
// never both. Rows are deleted together with their owner; the backing file
// is removed best-effort only.
type Attachment struct {
	gorm.Model
	TripID    *uint `gorm:"index" json:"trip_id,omitempty"`
	SegmentID *uint `gorm:"index" json:"segment_id,omitempty"`

	Path         string  `gorm:"not null" json:"path"`
	OriginalName string  `gorm:"not null" json:"original_name"`
	MimeType     *string `json:"mime_type,omitempty"`
	Size         *int64  `json:"size,omitempty"`
}
