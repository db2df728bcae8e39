package db

import (
	"log"
	"time"

	"gorm.io/gorm"

	"edgeguard/internal/config"
)

// runRetentionOnce performs a single pass of retention cleanup,
// deleting traffic logs and metric buckets older than their configured
// windows.
func runRetentionOnce(db *gorm.DB, cfg *config.Config) error {
	now := time.Now().UTC()

	logCutoff := now.AddDate(0, 0, -cfg.RetentionDays)
	if err := db.Where("timestamp < ?", logCutoff).Delete(&TrafficLog{}).Error; err != nil {
		return err
	}

	bucketCutoff := now.AddDate(0, 0, -cfg.BucketRetentionDays)
	if err := db.Where("bucket_start < ?", bucketCutoff).Delete(&MetricBucket{}).Error; err != nil {
		return err
	}

	return nil
}

// StartRetentionWorker launches a background goroutine that runs the
// retention cleanup once at startup and then once per day.
func StartRetentionWorker(db *gorm.DB, cfg *config.Config) {
	go func() {
		if err := runRetentionOnce(db, cfg); err != nil {
			log.Printf("retention cleanup error (startup): %v", err)
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if err := runRetentionOnce(db, cfg); err != nil {
				log.Printf("retention cleanup error: %v", err)
			}
		}
	}()
}
