// Package analysis builds the per-endpoint severity report a project
// dashboard polls: live traffic over a short window compared against
// hourly bucket baselines, classified into NORMAL, WATCH and HIGH.
package analysis

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"edgeguard/internal/db"
)

const (
	// defaultWindow is the live window current_rpm is computed over.
	defaultWindow = 5 * time.Minute

	// baselineDays is how far back the bucket baselines reach.
	baselineDays = 7

	// minBaselineRPM floors the baseline so endpoints with little or
	// no history don't divide into huge multipliers.
	minBaselineRPM = 0.1
)

// Analyzer computes severity reports from the traffic tables. It is
// read-only and safe to run concurrently with ingestion; counts read
// mid-increment are acceptable.
type Analyzer struct {
	db     *gorm.DB
	window time.Duration
}

func NewAnalyzer(gdb *gorm.DB) *Analyzer {
	return &Analyzer{db: gdb, window: defaultWindow}
}

type recentRow struct {
	Method    string
	Endpoint  string
	Requests  int64
	Throttled int64
	Blocked   int64
	RiskSum   int64
}

type baselineRow struct {
	EndpointID uint
	Total      int64
	HourTotal  int64
}

// ProjectReport builds the severity report for one project. Every
// registered endpoint appears exactly once, endpoints with no recent
// traffic included. Any query failure degrades to an empty report with
// a fresh timestamp; the caller never sees an error.
func (a *Analyzer) ProjectReport(ctx context.Context, projectID uuid.UUID) Report {
	now := time.Now().UTC()
	report := Report{ProjectID: projectID, GeneratedAt: now, Endpoints: []EndpointReport{}}

	gdb := a.db.WithContext(ctx)

	var endpoints []db.Endpoint
	if err := gdb.Where("project_id = ?", projectID).Order("method, pattern").Find(&endpoints).Error; err != nil {
		log.Printf("endpoint analysis error for project %s: %v", projectID, err)
		return report
	}

	var recents []recentRow
	err := gdb.Raw(
		`SELECT method, endpoint, count(*) AS requests,
			sum(case when decision = ? then 1 else 0 end) AS throttled,
			sum(case when decision = ? then 1 else 0 end) AS blocked,
			coalesce(sum(risk_score), 0) AS risk_sum
		FROM traffic_logs
		WHERE project_id = ? AND timestamp >= ?
		GROUP BY method, endpoint`,
		db.DecisionThrottle, db.DecisionBlock, projectID, now.Add(-a.window),
	).Scan(&recents).Error
	if err != nil {
		log.Printf("recent traffic query error for project %s: %v", projectID, err)
		return report
	}

	var baselines []baselineRow
	err = gdb.Raw(
		`SELECT mb.endpoint_id AS endpoint_id,
			sum(mb.request_count) AS total,
			sum(case when extract(hour from mb.bucket_start at time zone 'UTC') = ? then mb.request_count else 0 end) AS hour_total
		FROM metric_buckets mb
		JOIN endpoints e ON e.id = mb.endpoint_id
		WHERE e.project_id = ? AND mb.bucket_start >= ?
		GROUP BY mb.endpoint_id`,
		now.Hour(), projectID, now.AddDate(0, 0, -baselineDays),
	).Scan(&baselines).Error
	if err != nil {
		log.Printf("baseline query error for project %s: %v", projectID, err)
		return report
	}

	recentByKey := make(map[string]recentActivity, len(recents))
	for _, r := range recents {
		recentByKey[r.Method+" "+r.Endpoint] = recentActivity{
			Requests:  r.Requests,
			Throttled: r.Throttled,
			Blocked:   r.Blocked,
			RiskSum:   r.RiskSum,
		}
	}
	baselineByID := make(map[uint]baselineActivity, len(baselines))
	for _, b := range baselines {
		baselineByID[b.EndpointID] = baselineActivity{Total: b.Total, HourTotal: b.HourTotal}
	}

	for _, e := range endpoints {
		recent := recentByKey[e.Method+" "+e.Pattern]
		baseline := baselineByID[e.ID]
		report.Endpoints = append(report.Endpoints, buildEndpointReport(e, recent, baseline, a.window))
	}
	return report
}
