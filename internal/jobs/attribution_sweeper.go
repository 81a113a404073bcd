package jobs

import (
	"log"
	"time"

	"stylist-marketplace/internal/services"

	"gorm.io/gorm"
)

// AttributionSweeper periodically deletes unconverted attributions whose
// 30-day window has elapsed. Redundant with the cleanup-on-read path, but
// keeps rows for users who never come back from piling up.
type AttributionSweeper struct {
	db      *gorm.DB
	service *services.AttributionService
}

func NewAttributionSweeper(db *gorm.DB, windowDays int) *AttributionSweeper {
	return &AttributionSweeper{
		db:      db,
		service: services.NewAttributionService(db, windowDays),
	}
}

// Start begins the periodic sweep job
func (j *AttributionSweeper) Start(interval time.Duration) {
	go func() {
		// Run immediately on start
		if _, err := j.service.SweepExpired(); err != nil {
			log.Printf("Initial attribution sweep error: %v", err)
		}

		// Then run periodically
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			if _, err := j.service.SweepExpired(); err != nil {
				log.Printf("Attribution sweep error: %v", err)
			}
		}
	}()
}
