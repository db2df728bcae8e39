package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"edgeguard/internal/db"
)

func TestComputeMetricsFloorsEmptyBaseline(t *testing.T) {
	m := computeMetrics(recentActivity{Requests: 250}, baselineActivity{}, 5*time.Minute)

	assert.Equal(t, 50.0, m.CurrentRPM)
	assert.Equal(t, 0.1, m.BaselineRPM)
	assert.Equal(t, 500.0, m.TrafficMultiplier)
}

func TestComputeMetricsPrefersTimeOfDayBaseline(t *testing.T) {
	baseline := baselineActivity{
		Total:     7 * 24 * 60, // 1 rpm across the whole week
		HourTotal: 7 * 60 * 2,  // 2 rpm at this hour of day
	}
	m := computeMetrics(recentActivity{Requests: 10}, baseline, 5*time.Minute)

	assert.Equal(t, 2.0, m.BaselineRPM)
	assert.Equal(t, 1.0, m.TrafficMultiplier)
}

func TestComputeMetricsFallsBackToSevenDay(t *testing.T) {
	baseline := baselineActivity{Total: 7 * 24 * 60 * 3} // 3 rpm, none at this hour
	m := computeMetrics(recentActivity{Requests: 15}, baseline, 5*time.Minute)

	assert.Equal(t, 3.0, m.BaselineRPM)
	assert.Equal(t, 1.0, m.TrafficMultiplier)
}

func TestComputeMetricsRates(t *testing.T) {
	recent := recentActivity{Requests: 10, Throttled: 2, Blocked: 1, RiskSum: 500}
	m := computeMetrics(recent, baselineActivity{}, 5*time.Minute)

	assert.Equal(t, 0.2, m.ThrottleRate)
	assert.Equal(t, 0.1, m.BlockRate)
	assert.Equal(t, 0.5, m.AvgRiskScore)
}

func TestComputeMetricsZeroTraffic(t *testing.T) {
	m := computeMetrics(recentActivity{}, baselineActivity{}, 5*time.Minute)

	assert.Equal(t, 0.0, m.CurrentRPM)
	assert.Equal(t, 0.0, m.ThrottleRate)
	assert.Equal(t, 0.0, m.BlockRate)
	assert.Equal(t, 0.0, m.AvgRiskScore)
}

func TestClassifyPriorityOrder(t *testing.T) {
	tests := []struct {
		name         string
		metrics      Metrics
		requests     int64
		wantSeverity string
		wantColor    string
		wantSummary  string
	}{
		{
			name:         "throttling beats everything",
			metrics:      Metrics{ThrottleRate: 0.15, TrafficMultiplier: 9, CurrentRPM: 100, AvgRiskScore: 0.9},
			requests:     100,
			wantSeverity: SeverityHigh,
			wantColor:    "red",
			wantSummary:  "High throttling (15%).",
		},
		{
			name:         "spike fires even with zero risk",
			metrics:      Metrics{TrafficMultiplier: 5, CurrentRPM: 50},
			requests:     250,
			wantSeverity: SeverityHigh,
			wantColor:    "red",
			wantSummary:  "Traffic spike (5.0x baseline).",
		},
		{
			name:         "spike needs absolute volume too",
			metrics:      Metrics{TrafficMultiplier: 6, CurrentRPM: 8},
			requests:     40,
			wantSeverity: SeverityNormal,
			wantColor:    "green",
			wantSummary:  "Traffic within normal range.",
		},
		{
			name:         "elevated risk",
			metrics:      Metrics{AvgRiskScore: 0.70, CurrentRPM: 1},
			requests:     5,
			wantSeverity: SeverityWatch,
			wantColor:    "yellow",
			wantSummary:  "Elevated risk scores.",
		},
		{
			name:         "elevated traffic",
			metrics:      Metrics{TrafficMultiplier: 2.5, CurrentRPM: 6},
			requests:     30,
			wantSeverity: SeverityWatch,
			wantColor:    "yellow",
			wantSummary:  "Traffic elevated (2.5x).",
		},
		{
			name:         "silent endpoint",
			metrics:      Metrics{},
			requests:     0,
			wantSeverity: SeverityNormal,
			wantColor:    "green",
			wantSummary:  "No active traffic.",
		},
		{
			name:         "steady traffic",
			metrics:      Metrics{TrafficMultiplier: 1.1, CurrentRPM: 3},
			requests:     15,
			wantSeverity: SeverityNormal,
			wantColor:    "green",
			wantSummary:  "Traffic within normal range.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			severity, color, summary := classify(tt.metrics, tt.requests)
			assert.Equal(t, tt.wantSeverity, severity)
			assert.Equal(t, tt.wantColor, color)
			assert.Equal(t, tt.wantSummary, summary)
		})
	}
}

func TestActionFor(t *testing.T) {
	action, suggested := actionFor(SeverityNormal)
	assert.Equal(t, "Monitoring", action)
	assert.Empty(t, suggested)

	for _, severity := range []string{SeverityWatch, SeverityHigh} {
		action, suggested = actionFor(severity)
		assert.Equal(t, "Active mitigation", action)
		assert.Equal(t, "Inspect traffic sources.", suggested)
	}
}

func TestBuildEndpointReportRoundsMetrics(t *testing.T) {
	endpoint := db.Endpoint{
		Method:      "GET",
		Pattern:     "/users/:id",
		FirstSeenAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		LastSeenAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	recent := recentActivity{Requests: 7, Throttled: 1, RiskSum: 123}

	r := buildEndpointReport(endpoint, recent, baselineActivity{}, 5*time.Minute)

	assert.Equal(t, "GET", r.Method)
	assert.Equal(t, "/users/:id", r.Endpoint)
	assert.Equal(t, 1.4, r.Metrics.CurrentRPM)          // 7 / 5
	assert.Equal(t, 0.14, r.Metrics.ThrottleRate)       // 1/7 rounded
	assert.Equal(t, 0.18, r.Metrics.AvgRiskScore)       // 123/7/100 rounded
	assert.Equal(t, 14.0, r.Metrics.TrafficMultiplier)  // 1.4 / 0.1
	assert.Equal(t, endpoint.FirstSeenAt, r.FirstSeen)
	assert.Equal(t, endpoint.LastSeenAt, r.LastSeen)
}

func TestBuildEndpointReportSilentEndpoint(t *testing.T) {
	endpoint := db.Endpoint{Method: "POST", Pattern: "/orders"}

	r := buildEndpointReport(endpoint, recentActivity{}, baselineActivity{}, 5*time.Minute)

	assert.Equal(t, SeverityNormal, r.Severity)
	assert.Equal(t, "green", r.Color)
	assert.Equal(t, "No active traffic.", r.Summary)
	assert.Equal(t, "Monitoring", r.Action)
	assert.Empty(t, r.SuggestedAction)
}
