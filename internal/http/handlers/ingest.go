package handlers

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"

	dbpkg "edgeguard/internal/db"
	"edgeguard/internal/ingest"
)

var (
	factsTotal           *prometheus.CounterVec
	ingestErrorsTotal    prometheus.Counter
	patternMismatchTotal prometheus.Counter
	ingestDuration       prometheus.Histogram

	metricsOnce sync.Once
)

// InitPrometheusMetrics registers the ingestion metrics. Safe to call
// more than once; only the first call registers.
func InitPrometheusMetrics() {
	metricsOnce.Do(func() {
		factsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "edgeguard",
				Name:      "traffic_facts_total",
				Help:      "Total number of ingested traffic facts.",
			},
			[]string{"project", "decision"},
		)
		ingestErrorsTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "edgeguard",
				Name:      "ingest_errors_total",
				Help:      "Facts dropped because persistence failed.",
			},
		)
		patternMismatchTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "edgeguard",
				Name:      "pattern_mismatch_total",
				Help:      "Facts whose worker-supplied pattern disagreed with the canonical one.",
			},
		)
		ingestDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "edgeguard",
				Name:      "ingest_duration_seconds",
				Help:      "Histogram of fact ingestion durations in seconds.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		)
		prometheus.MustRegister(factsTotal, ingestErrorsTotal, patternMismatchTotal, ingestDuration)
	})
}

// trafficFact is the wire form of one worker-reported request.
type trafficFact struct {
	ProjectID  string         `json:"project_id"`
	Method     string         `json:"method"`
	Path       string         `json:"path"`
	Pattern    string         `json:"pattern,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	RiskScore  *float64       `json:"risk_score,omitempty"`
	Decision   string         `json:"decision"`
	StatusCode int            `json:"status_code"`
	LatencyMs  int64          `json:"latency_ms"`
	Timestamp  *time.Time     `json:"timestamp,omitempty"`
	APIKeyHash string         `json:"api_key_hash,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// TrafficIngestHandler accepts one traffic fact per request. Malformed
// requests are rejected with 400; everything past validation responds
// 202, with the body distinguishing "ingested" from "error_ignored" so
// workers never retry on storage trouble.
func TrafficIngestHandler(pipeline *ingest.Pipeline) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var fact trafficFact
		if err := json.Unmarshal(ctx.PostBody(), &fact); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}

		projectID, err := uuid.Parse(fact.ProjectID)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid project_id")
			return
		}
		if fact.Method == "" || fact.Path == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "method and path are required")
			return
		}
		switch fact.Decision {
		case dbpkg.DecisionAllow, dbpkg.DecisionThrottle, dbpkg.DecisionBlock:
		default:
			errResponse(ctx, fasthttp.StatusBadRequest, "decision must be ALLOW, THROTTLE or BLOCK")
			return
		}
		if fact.RiskScore != nil && (*fact.RiskScore < 0 || *fact.RiskScore > 1) {
			errResponse(ctx, fasthttp.StatusBadRequest, "risk_score must be between 0 and 1")
			return
		}

		start := time.Now()
		res := pipeline.Ingest(ctx, ingest.Fact{
			ProjectID:      projectID,
			Method:         fact.Method,
			Path:           fact.Path,
			Pattern:        fact.Pattern,
			IP:             fact.IP,
			UserAgent:      fact.UserAgent,
			RiskScore:      fact.RiskScore,
			Decision:       fact.Decision,
			StatusCode:     fact.StatusCode,
			LatencyMs:      fact.LatencyMs,
			Timestamp:      fact.Timestamp,
			KeyFingerprint: fact.APIKeyHash,
			Attributes:     fact.Attributes,
		})
		ingestDuration.Observe(time.Since(start).Seconds())

		factsTotal.WithLabelValues(fact.ProjectID, fact.Decision).Inc()
		if res.PatternMismatch {
			patternMismatchTotal.Inc()
		}
		if res.Status == ingest.StatusErrorIgnored {
			ingestErrorsTotal.Inc()
		}

		body := map[string]any{"status": res.Status, "endpoint": res.Pattern}
		if res.PatternMismatch {
			body["pattern_mismatch"] = true
		}
		ctx.SetStatusCode(fasthttp.StatusAccepted)
		jsonResponse(ctx, body)
	}
}
