package worker

import (
	"context"
	"time"

	"wayplan/models"
	"wayplan/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Re-fetch throttle: segments fetched more recently than this are skipped,
// so a tick never hits the provider faster than the tick interval itself.
const syncThrottle = 50 * time.Minute

// FlightSyncWorker re-enriches today's flight segments on a fixed cadence.
// Every segment that has ever been enriched carries the auto-sync flag and
// keeps retrying for the rest of its departure day, whatever the last
// outcome was.
type FlightSyncWorker struct {
	DB       *gorm.DB
	Enricher *utils.FlightEnricher
	Interval time.Duration
	Logger   *logrus.Entry
}

func NewFlightSyncWorker(db *gorm.DB, enricher *utils.FlightEnricher) *FlightSyncWorker {
	return &FlightSyncWorker{
		DB:       db,
		Enricher: enricher,
		Interval: time.Hour,
		Logger:   logrus.WithField("worker", "flight_sync"),
	}
}

func (w *FlightSyncWorker) Start(ctx context.Context) {
	w.Logger.Info("Flight sync worker started")

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("Flight sync worker shutting down...")
			return
		case <-ticker.C:
			w.syncTodaysFlights(time.Now().UTC())
		}
	}
}

func (w *FlightSyncWorker) syncTodaysFlights(now time.Time) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var segments []models.Segment
	err := w.DB.
		Where("transport_mode = ?", models.TransportFlight).
		Where("flight_auto_sync = ?", true).
		Where("start_time >= ? AND start_time < ?", dayStart, dayEnd).
		Find(&segments).Error
	if err != nil {
		w.Logger.Errorf("Failed to query today's flight segments: %v", err)
		return
	}

	if len(segments) == 0 {
		return
	}
	w.Logger.Infof("Syncing %d flight segment(s) departing today", len(segments))

	for i := range segments {
		segment := &segments[i]
		if !ShouldSync(segment, now) {
			continue
		}
		// Per-segment failures are contained inside the enricher; a bad
		// provider day never stops the loop.
		w.Enricher.EnrichSegment(segment)
	}
}

// ShouldSync reports whether a segment is due for re-enrichment at the given
// instant, applying the fetch throttle.
func ShouldSync(segment *models.Segment, now time.Time) bool {
	if segment.FlightLastFetchedAt == nil {
		return true
	}
	return now.Sub(*segment.FlightLastFetchedAt) >= syncThrottle
}
