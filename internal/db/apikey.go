package db

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// APIKey is a caller credential for a project. Only the SHA-256 hash
// of the raw key is stored; workers report the same hash as the fact's
// key fingerprint, so ingestion can resolve it without ever seeing the
// secret.
type APIKey struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CreatedAt time.Time

	ProjectID uuid.UUID `gorm:"type:uuid;index;not null"`

	KeyHash string `gorm:"uniqueIndex;size:64;not null"`
	Label   string

	IsActive  bool `gorm:"not null;default:true"`
	RevokedAt *time.Time

	// Deleting a key keeps its traffic logs, with the reference nulled.
	TrafficLogs []TrafficLog `gorm:"constraint:OnDelete:SET NULL"`
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

// HashAPIKey returns the hex-encoded SHA-256 digest of a raw key.
// Workers apply the same digest on their side, so the hash is the
// shared identity of a key across the fleet.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
