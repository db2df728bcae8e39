package db

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"edgeguard/internal/config"
)

// Connect opens a GORM database connection using APP_DATABASE_URL (PostgreSQL URL).
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("APP_DATABASE_URL is required (PostgreSQL URL)")
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, errors.New("APP_DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
	// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, err
	}

	// Auto-migrate the core tables.
	if err := db.AutoMigrate(&Project{}, &Domain{}, &APIKey{}, &Endpoint{}, &MetricBucket{}, &TrafficLog{}); err != nil {
		return nil, err
	}

	return db, nil
}

// EnsureBootstrapProject makes sure the bootstrap project from config
// exists, together with its domain and API key when configured. Each
// piece is checked independently so a partially created bootstrap heals
// on the next start.
func EnsureBootstrapProject(db *gorm.DB, cfg *config.Config) error {
	if cfg.BootstrapProjectName == "" || cfg.BootstrapUpstreamURL == "" {
		return nil
	}

	var project Project
	err := db.Where("name = ?", cfg.BootstrapProjectName).Limit(1).Find(&project).Error
	if err != nil {
		return err
	}
	if project.ID == uuid.Nil {
		project = Project{
			Name:            cfg.BootstrapProjectName,
			UpstreamBaseURL: cfg.BootstrapUpstreamURL,
		}
		if err := db.Create(&project).Error; err != nil {
			return err
		}
	}

	if cfg.BootstrapDomain != "" {
		var count int64
		if err := db.Model(&Domain{}).Where("hostname = ?", cfg.BootstrapDomain).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			now := time.Now().UTC()
			domain := Domain{
				ProjectID:  project.ID,
				Hostname:   cfg.BootstrapDomain,
				Verified:   true,
				VerifiedAt: &now,
			}
			if err := db.Create(&domain).Error; err != nil {
				return err
			}
		}
	}

	if cfg.BootstrapAPIKey != "" {
		hash := HashAPIKey(cfg.BootstrapAPIKey)
		var count int64
		if err := db.Model(&APIKey{}).Where("key_hash = ?", hash).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			key := APIKey{
				ProjectID: project.ID,
				KeyHash:   hash,
				Label:     "bootstrap",
				IsActive:  true,
			}
			if err := db.Create(&key).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
