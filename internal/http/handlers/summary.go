package handlers

import (
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"
)

type summaryTotals struct {
	Requests     int64   `json:"requests"`
	Errors       int64   `json:"errors"`
	Throttled    int64   `json:"throttled"`
	Blocked      int64   `json:"blocked"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	AvgRiskScore float64 `json:"avg_risk_score"`
}

type topEndpoint struct {
	Method   string `json:"method"`
	Endpoint string `json:"endpoint"`
	Requests int64  `json:"requests"`
}

// MetricsSummaryHandler serves a project's aggregate counters over a
// query-selected window (default 24h), straight from the hourly
// buckets.
func MetricsSummaryHandler(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		project, ok := MustProject(ctx)
		if !ok {
			return
		}
		cutoff, hours := parseWindow(ctx)

		var row struct {
			Requests   int64
			Errors     int64
			Throttled  int64
			Blocked    int64
			LatencySum int64
			RiskSum    int64
		}
		err := db.Raw(
			`SELECT coalesce(sum(mb.request_count), 0) AS requests,
				coalesce(sum(mb.error_count), 0) AS errors,
				coalesce(sum(mb.throttled_count), 0) AS throttled,
				coalesce(sum(mb.blocked_count), 0) AS blocked,
				coalesce(sum(mb.latency_sum), 0) AS latency_sum,
				coalesce(sum(mb.risk_score_sum), 0) AS risk_sum
			FROM metric_buckets mb
			JOIN endpoints e ON e.id = mb.endpoint_id
			WHERE e.project_id = ? AND mb.bucket_start >= ?`,
			project.ID, cutoff,
		).Scan(&row).Error
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query summary")
			return
		}

		totals := summaryTotals{
			Requests:  row.Requests,
			Errors:    row.Errors,
			Throttled: row.Throttled,
			Blocked:   row.Blocked,
		}
		if row.Requests > 0 {
			totals.AvgLatencyMs = round2(float64(row.LatencySum) / float64(row.Requests))
			totals.AvgRiskScore = round2(float64(row.RiskSum) / float64(row.Requests) / 100)
		}

		var top []topEndpoint
		err = db.Raw(
			`SELECT e.method AS method, e.pattern AS endpoint, sum(mb.request_count) AS requests
			FROM metric_buckets mb
			JOIN endpoints e ON e.id = mb.endpoint_id
			WHERE e.project_id = ? AND mb.bucket_start >= ?
			GROUP BY e.method, e.pattern
			ORDER BY requests DESC
			LIMIT 5`,
			project.ID, cutoff,
		).Scan(&top).Error
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query top endpoints")
			return
		}
		if top == nil {
			top = []topEndpoint{}
		}

		jsonResponse(ctx, map[string]any{
			"window_hours":  hours,
			"totals":        totals,
			"top_endpoints": top,
		})
	}
}
