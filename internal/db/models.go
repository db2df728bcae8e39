package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Endpoint is one canonical route observed for a project. The pattern
// is always the server-computed canonical form (volatile segments
// replaced with ":id"), so retries and concurrent workers converge on
// the same row.
type Endpoint struct {
	ID uint `gorm:"primaryKey"`

	ProjectID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_endpoint_identity,priority:1;not null"`
	Method    string    `gorm:"uniqueIndex:idx_endpoint_identity,priority:2;not null"`
	Pattern   string    `gorm:"uniqueIndex:idx_endpoint_identity,priority:3;not null"`

	// FirstSeenAt is set once when the endpoint is first observed;
	// LastSeenAt advances on every matching fact.
	FirstSeenAt time.Time `gorm:"not null"`
	LastSeenAt  time.Time `gorm:"not null"`

	Buckets []MetricBucket `gorm:"constraint:OnDelete:CASCADE"`
}

// MetricBucket stores pre-aggregated hourly counters per endpoint for
// fast baseline queries. Rows are upserted additively during ingestion,
// so counters never decrease within a bucket's lifetime.
type MetricBucket struct {
	ID uint `gorm:"primaryKey"`

	EndpointID  uint      `gorm:"uniqueIndex:idx_metric_bucket_unique,priority:1;not null"`
	BucketStart time.Time `gorm:"uniqueIndex:idx_metric_bucket_unique,priority:2;not null"` // start of the hour (UTC)

	RequestCount   int64 `gorm:"not null"` // total requests in this hour
	ErrorCount     int64 `gorm:"not null"` // requests with status >= 400
	LatencySum     int64 `gorm:"not null"` // summed upstream latency ms
	RiskScoreSum   int64 `gorm:"not null"` // summed risk scores, x100 fixed point
	ThrottledCount int64 `gorm:"not null"` // requests with decision THROTTLE
	BlockedCount   int64 `gorm:"not null"` // requests with decision BLOCK
}

// TrafficLog is the full-fidelity record of a single request fact
// reported by an edge worker. Rows are append-only; they are removed
// only by the retention worker or by project cascade-deletion.
type TrafficLog struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time `gorm:"index"`

	ProjectID uuid.UUID `gorm:"type:uuid;index;not null"`

	// APIKeyID is the resolved key identity, if the worker reported a
	// known key fingerprint. Nil when the key was absent or unknown.
	APIKeyID *uuid.UUID `gorm:"type:uuid;index"`

	// Timestamp is when the edge handled the request (worker-supplied,
	// falling back to ingestion time).
	Timestamp time.Time `gorm:"index;not null"`

	IP        string
	UserAgent string

	Path     string // raw path as received at the edge
	Endpoint string `gorm:"index"` // canonical pattern
	Method   string

	StatusCode int
	Decision   string // ALLOW, THROTTLE or BLOCK

	// RiskScore is the edge's 0.0-1.0 score multiplied by 100 and
	// rounded, nil when the worker supplied none.
	RiskScore *int

	LatencyMs int64

	// Attributes holds arbitrary key/value pairs the worker attached
	// to this request (e.g. rule ids, country, bot flags) without
	// requiring schema changes.
	Attributes datatypes.JSONMap `gorm:"type:json"`
}
