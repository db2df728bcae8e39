package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgeguard/internal/config"
)

func TestRunRetentionOncePrunesOldRows(t *testing.T) {
	gdb := openTestDB(t)
	project := createTestProject(t, gdb)
	store := NewTrafficStore(gdb)

	now := time.Now().UTC()
	cfg := &config.Config{RetentionDays: 30, BucketRetentionDays: 90}

	fresh := TrafficLog{
		ProjectID:  project.ID,
		Timestamp:  now,
		Path:       "/orders/1",
		Endpoint:   "/orders/:id",
		Method:     "GET",
		StatusCode: 200,
		Decision:   DecisionAllow,
	}
	require.NoError(t, store.RecordFact(context.Background(), fresh, now))

	// A log past the 30-day window and a bucket past the 90-day window.
	stale := fresh
	stale.Timestamp = now.AddDate(0, 0, -31)
	require.NoError(t, gdb.Create(&stale).Error)

	var endpoint Endpoint
	require.NoError(t, gdb.First(&endpoint).Error)
	oldBucket := MetricBucket{
		EndpointID:   endpoint.ID,
		BucketStart:  now.AddDate(0, 0, -91).Truncate(time.Hour),
		RequestCount: 5,
	}
	require.NoError(t, gdb.Create(&oldBucket).Error)

	require.NoError(t, runRetentionOnce(gdb, cfg))

	var logs int64
	require.NoError(t, gdb.Model(&TrafficLog{}).Count(&logs).Error)
	assert.Equal(t, int64(1), logs)

	var buckets int64
	require.NoError(t, gdb.Model(&MetricBucket{}).Count(&buckets).Error)
	assert.Equal(t, int64(1), buckets)
}
