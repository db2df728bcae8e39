package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Decisions an edge worker can report for a request.
const (
	DecisionAllow    = "ALLOW"
	DecisionThrottle = "THROTTLE"
	DecisionBlock    = "BLOCK"
)

// TrafficStore is the single writer for endpoint, bucket and log rows.
type TrafficStore struct {
	db *gorm.DB
}

func NewTrafficStore(db *gorm.DB) *TrafficStore {
	return &TrafficStore{db: db}
}

// ResolveAPIKey maps a key fingerprint (SHA-256 hex) to the key's
// identity. Returns (nil, nil) when no key matches; revoked keys still
// resolve so their traffic stays attributed.
func (s *TrafficStore) ResolveAPIKey(ctx context.Context, keyHash string) (*uuid.UUID, error) {
	// Use Find so "not found" doesn't log as error.
	var key APIKey
	if err := s.db.WithContext(ctx).Where("key_hash = ?", keyHash).Limit(1).Find(&key).Error; err != nil {
		return nil, err
	}
	if key.ID == uuid.Nil {
		return nil, nil
	}
	id := key.ID
	return &id, nil
}

// RecordFact stores one traffic fact as a single durable unit: the
// endpoint registry row, its hourly counter bucket and the raw log
// entry commit or roll back together. The upserts are single atomic
// statements, so concurrent facts for the same endpoint or bucket
// never lose increments and never race two rows into existence.
func (s *TrafficStore) RecordFact(ctx context.Context, entry TrafficLog, receivedAt time.Time) error {
	seenAt := receivedAt.UTC()
	bucketStart := seenAt.Truncate(time.Hour)
	delta := bucketDeltas(entry)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var endpointID uint
		err := tx.Raw(`
			INSERT INTO endpoints (project_id, method, pattern, first_seen_at, last_seen_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (project_id, method, pattern)
			DO UPDATE SET last_seen_at = excluded.last_seen_at
			RETURNING id`,
			entry.ProjectID, entry.Method, entry.Endpoint, seenAt, seenAt,
		).Scan(&endpointID).Error
		if err != nil {
			return err
		}

		err = tx.Exec(`
			INSERT INTO metric_buckets
				(endpoint_id, bucket_start, request_count, error_count, latency_sum, risk_score_sum, throttled_count, blocked_count)
			VALUES (?, ?, 1, ?, ?, ?, ?, ?)
			ON CONFLICT (endpoint_id, bucket_start)
			DO UPDATE SET
				request_count   = metric_buckets.request_count + excluded.request_count,
				error_count     = metric_buckets.error_count + excluded.error_count,
				latency_sum     = metric_buckets.latency_sum + excluded.latency_sum,
				risk_score_sum  = metric_buckets.risk_score_sum + excluded.risk_score_sum,
				throttled_count = metric_buckets.throttled_count + excluded.throttled_count,
				blocked_count   = metric_buckets.blocked_count + excluded.blocked_count`,
			endpointID, bucketStart,
			delta.errors, delta.latency, delta.risk, delta.throttled, delta.blocked,
		).Error
		if err != nil {
			return err
		}

		return tx.Create(&entry).Error
	})
}

// bucketDelta is the set of counter increments one fact contributes to
// its hourly bucket (the implicit +1 request aside).
type bucketDelta struct {
	errors    int64
	latency   int64
	risk      int64
	throttled int64
	blocked   int64
}

func bucketDeltas(entry TrafficLog) bucketDelta {
	d := bucketDelta{latency: entry.LatencyMs}
	if entry.StatusCode >= 400 {
		d.errors = 1
	}
	if entry.RiskScore != nil {
		d.risk = int64(*entry.RiskScore)
	}
	switch entry.Decision {
	case DecisionThrottle:
		d.throttled = 1
	case DecisionBlock:
		d.blocked = 1
	}
	return d
}
