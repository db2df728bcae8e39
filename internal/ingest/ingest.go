// Package ingest turns worker-reported traffic facts into durable
// endpoint, bucket and log rows. The pipeline is deliberately
// never-fail: a fact that cannot be stored is logged and dropped, and
// the caller still gets a terminal result, so the enforcement point
// never retries or stalls on telemetry.
package ingest

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"edgeguard/internal/db"
	"edgeguard/internal/pathnorm"
)

// Fact is one request observation reported by an edge worker.
type Fact struct {
	ProjectID uuid.UUID
	Method    string
	Path      string

	// Pattern is the worker's own canonicalization of Path, if it
	// computed one. It is advisory only: the pipeline recomputes the
	// pattern itself and a disagreement is logged, never honoured.
	Pattern string

	IP        string
	UserAgent string

	// RiskScore is the edge's 0.0-1.0 assessment, absent when the
	// worker ran no scoring for this request.
	RiskScore *float64

	Decision   string
	StatusCode int
	LatencyMs  int64

	// Timestamp is when the edge handled the request. Nil means "use
	// ingestion time".
	Timestamp *time.Time

	// KeyFingerprint is the SHA-256 hex of the caller's API key.
	KeyFingerprint string

	// Attributes carries worker-attached context (rule ids, country,
	// bot flags) stored verbatim on the log row.
	Attributes map[string]interface{}
}

// Ingestion outcomes reported back to the worker. StatusErrorIgnored
// tells the worker the fact was dropped and must not be retried.
const (
	StatusIngested     = "ingested"
	StatusErrorIgnored = "error_ignored"
)

// Result describes what happened to one fact.
type Result struct {
	Status          string
	Pattern         string
	PatternMismatch bool

	// KeyDegraded is set when a fingerprint was supplied but no key
	// identity could be attached (unknown hash or failed lookup).
	KeyDegraded bool

	// Err is the swallowed storage error, kept for logs and metrics.
	// It is never surfaced to the worker.
	Err error
}

// Store is the persistence surface the pipeline writes through.
type Store interface {
	ResolveAPIKey(ctx context.Context, keyHash string) (*uuid.UUID, error)
	RecordFact(ctx context.Context, entry db.TrafficLog, receivedAt time.Time) error
}

// Pipeline ingests facts one at a time.
type Pipeline struct {
	store   Store
	timeout time.Duration
}

func NewPipeline(store Store, timeout time.Duration) *Pipeline {
	return &Pipeline{store: store, timeout: timeout}
}

// Ingest records one fact and reports the outcome. It never panics and
// never returns an error to the caller; every failure mode degrades to
// StatusErrorIgnored with the cause logged.
func (p *Pipeline) Ingest(ctx context.Context, fact Fact) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("traffic ingest panic for %s %s: %v", fact.Method, fact.Path, r)
			result.Status = StatusErrorIgnored
			result.Err = fmt.Errorf("panic: %v", r)
		}
	}()

	// The pipeline is the canonicalization authority: the pattern is
	// always recomputed here, and a worker-supplied value only ever
	// produces a warning.
	pattern := pathnorm.Canonicalize(fact.Path)
	result.Pattern = pattern
	if fact.Pattern != "" && fact.Pattern != pattern {
		result.PatternMismatch = true
		log.Printf("pattern mismatch for %s %s: worker sent %q, using %q", fact.Method, fact.Path, fact.Pattern, pattern)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var keyID *uuid.UUID
	if fact.KeyFingerprint != "" {
		id, err := p.store.ResolveAPIKey(ctx, fact.KeyFingerprint)
		if err != nil {
			log.Printf("api key lookup error during ingest: %v", err)
		}
		if id == nil {
			result.KeyDegraded = true
		} else {
			keyID = id
		}
	}

	now := time.Now().UTC()
	ts := now
	if fact.Timestamp != nil {
		ts = fact.Timestamp.UTC()
	}

	entry := db.TrafficLog{
		ProjectID:  fact.ProjectID,
		APIKeyID:   keyID,
		Timestamp:  ts,
		IP:         fact.IP,
		UserAgent:  fact.UserAgent,
		Path:       fact.Path,
		Endpoint:   pattern,
		Method:     fact.Method,
		StatusCode: fact.StatusCode,
		Decision:   fact.Decision,
		RiskScore:  scaleRisk(fact.RiskScore),
		LatencyMs:  fact.LatencyMs,
	}
	if len(fact.Attributes) > 0 {
		entry.Attributes = datatypes.JSONMap(fact.Attributes)
	}

	if err := p.store.RecordFact(ctx, entry, now); err != nil {
		log.Printf("traffic ingest error for %s %s: %v", fact.Method, pattern, err)
		result.Status = StatusErrorIgnored
		result.Err = err
		return result
	}

	result.Status = StatusIngested
	return result
}

// scaleRisk converts a 0.0-1.0 score to the x100 fixed-point integer
// used everywhere downstream.
func scaleRisk(score *float64) *int {
	if score == nil {
		return nil
	}
	v := int(math.Round(*score * 100))
	return &v
}
