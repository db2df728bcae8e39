package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"edgeguard/internal/db"
)

// Severity levels for an endpoint, in escalating order.
const (
	SeverityNormal = "NORMAL"
	SeverityWatch  = "WATCH"
	SeverityHigh   = "HIGH"
)

// Metrics is the per-endpoint view the dashboard renders. All values
// are rounded to two decimals before serialization.
type Metrics struct {
	CurrentRPM        float64 `json:"current_rpm"`
	BaselineRPM       float64 `json:"baseline_rpm"`
	TrafficMultiplier float64 `json:"traffic_multiplier"`
	ThrottleRate      float64 `json:"throttle_rate"`
	BlockRate         float64 `json:"block_rate"`
	AvgRiskScore      float64 `json:"avg_risk_score"`
}

// EndpointReport is one endpoint's line in the severity report.
type EndpointReport struct {
	Method          string    `json:"method"`
	Endpoint        string    `json:"endpoint"`
	Severity        string    `json:"severity"`
	Color           string    `json:"color"`
	Summary         string    `json:"summary"`
	Metrics         Metrics   `json:"metrics"`
	Action          string    `json:"action"`
	SuggestedAction string    `json:"suggested_action,omitempty"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
}

// Report is the full analysis response for a project.
type Report struct {
	ProjectID   uuid.UUID        `json:"project_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Endpoints   []EndpointReport `json:"endpoints"`
}

// recentActivity aggregates one endpoint's traffic over the live
// window. RiskSum is x100 fixed point, like the bucket column.
type recentActivity struct {
	Requests  int64
	Throttled int64
	Blocked   int64
	RiskSum   int64
}

// baselineActivity aggregates one endpoint's bucket history over the
// baseline horizon.
type baselineActivity struct {
	Total     int64 // requests across all buckets
	HourTotal int64 // requests in buckets whose hour matches now
}

// computeMetrics derives the endpoint metrics from the live window and
// the bucket history. The time-of-day baseline wins when it has data;
// either way the baseline is floored so silent endpoints don't produce
// absurd multipliers.
func computeMetrics(recent recentActivity, baseline baselineActivity, window time.Duration) Metrics {
	currentRPM := float64(recent.Requests) / window.Minutes()

	sevenDayRPM := float64(baseline.Total) / (baselineDays * 24 * 60)
	timeOfDayRPM := float64(baseline.HourTotal) / (baselineDays * 60)

	baselineRPM := sevenDayRPM
	if timeOfDayRPM > 0 {
		baselineRPM = timeOfDayRPM
	}
	if baselineRPM < minBaselineRPM {
		baselineRPM = minBaselineRPM
	}

	m := Metrics{
		CurrentRPM:        currentRPM,
		BaselineRPM:       baselineRPM,
		TrafficMultiplier: currentRPM / baselineRPM,
	}
	if recent.Requests > 0 {
		m.ThrottleRate = float64(recent.Throttled) / float64(recent.Requests)
		m.BlockRate = float64(recent.Blocked) / float64(recent.Requests)
		m.AvgRiskScore = float64(recent.RiskSum) / float64(recent.Requests) / 100
	}
	return m
}

// classify maps metrics to a severity. The checks run in fixed
// priority order and the first match wins, so throttling always beats
// a spike and a spike always beats elevated risk.
func classify(m Metrics, requests int64) (severity, color, summary string) {
	switch {
	case m.ThrottleRate > 0.10:
		return SeverityHigh, "red", fmt.Sprintf("High throttling (%d%%).", int(m.ThrottleRate*100))
	case m.TrafficMultiplier >= 4.0 && m.CurrentRPM > 10:
		return SeverityHigh, "red", fmt.Sprintf("Traffic spike (%.1fx baseline).", m.TrafficMultiplier)
	case m.AvgRiskScore >= 0.70:
		return SeverityWatch, "yellow", "Elevated risk scores."
	case m.TrafficMultiplier >= 2.0 && m.CurrentRPM > 5:
		return SeverityWatch, "yellow", fmt.Sprintf("Traffic elevated (%.1fx).", m.TrafficMultiplier)
	case requests == 0:
		return SeverityNormal, "green", "No active traffic."
	default:
		return SeverityNormal, "green", "Traffic within normal range."
	}
}

func actionFor(severity string) (action, suggested string) {
	if severity == SeverityNormal {
		return "Monitoring", ""
	}
	return "Active mitigation", "Inspect traffic sources."
}

func buildEndpointReport(e db.Endpoint, recent recentActivity, baseline baselineActivity, window time.Duration) EndpointReport {
	m := computeMetrics(recent, baseline, window)
	severity, color, summary := classify(m, recent.Requests)
	action, suggested := actionFor(severity)

	return EndpointReport{
		Method:          e.Method,
		Endpoint:        e.Pattern,
		Severity:        severity,
		Color:           color,
		Summary:         summary,
		Metrics:         m.rounded(),
		Action:          action,
		SuggestedAction: suggested,
		FirstSeen:       e.FirstSeenAt,
		LastSeen:        e.LastSeenAt,
	}
}

func (m Metrics) rounded() Metrics {
	return Metrics{
		CurrentRPM:        round2(m.CurrentRPM),
		BaselineRPM:       round2(m.BaselineRPM),
		TrafficMultiplier: round2(m.TrafficMultiplier),
		ThrottleRate:      round2(m.ThrottleRate),
		BlockRate:         round2(m.BlockRate),
		AvgRiskScore:      round2(m.AvgRiskScore),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
