package analysis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"edgeguard/internal/db"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&db.Project{}, &db.Domain{}, &db.APIKey{}, &db.Endpoint{}, &db.MetricBucket{}, &db.TrafficLog{}))

	for _, table := range []string{"traffic_logs", "metric_buckets", "endpoints", "api_keys", "domains", "projects"} {
		require.NoError(t, gdb.Exec("DELETE FROM "+table).Error)
	}
	return gdb
}

func TestProjectReportIncludesSilentEndpoints(t *testing.T) {
	gdb := openTestDB(t)

	project := db.Project{Name: "test", UpstreamBaseURL: "https://upstream.test"}
	require.NoError(t, gdb.Create(&project).Error)

	store := db.NewTrafficStore(gdb)
	now := time.Now().UTC()

	// Live traffic on one endpoint.
	for i := 0; i < 3; i++ {
		entry := db.TrafficLog{
			ProjectID:  project.ID,
			Timestamp:  now,
			Path:       "/users/4711",
			Endpoint:   "/users/:id",
			Method:     "GET",
			StatusCode: 200,
			Decision:   db.DecisionAllow,
			LatencyMs:  5,
		}
		require.NoError(t, store.RecordFact(context.Background(), entry, now))
	}

	// A registered endpoint that has gone quiet.
	quietSince := now.Add(-48 * time.Hour)
	quiet := db.Endpoint{
		ProjectID:   project.ID,
		Method:      "DELETE",
		Pattern:     "/sessions/:id",
		FirstSeenAt: quietSince,
		LastSeenAt:  quietSince,
	}
	require.NoError(t, gdb.Create(&quiet).Error)

	report := NewAnalyzer(gdb).ProjectReport(context.Background(), project.ID)

	assert.Equal(t, project.ID, report.ProjectID)
	assert.WithinDuration(t, time.Now().UTC(), report.GeneratedAt, 10*time.Second)
	require.Len(t, report.Endpoints, 2)

	// Ordered by method then pattern.
	silent := report.Endpoints[0]
	assert.Equal(t, "DELETE", silent.Method)
	assert.Equal(t, "/sessions/:id", silent.Endpoint)
	assert.Equal(t, SeverityNormal, silent.Severity)
	assert.Equal(t, "No active traffic.", silent.Summary)

	active := report.Endpoints[1]
	assert.Equal(t, "GET", active.Method)
	assert.Equal(t, "/users/:id", active.Endpoint)
	assert.Equal(t, 0.6, active.Metrics.CurrentRPM) // 3 requests / 5 minutes
}

func TestProjectReportUnknownProjectIsEmpty(t *testing.T) {
	gdb := openTestDB(t)

	report := NewAnalyzer(gdb).ProjectReport(context.Background(), uuid.New())

	assert.NotNil(t, report.Endpoints)
	assert.Empty(t, report.Endpoints)
	assert.WithinDuration(t, time.Now().UTC(), report.GeneratedAt, 10*time.Second)
}
