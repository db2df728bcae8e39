package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAPIKey(t *testing.T) {
	// Fixed digest so the worker fleet and this service agree forever.
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		HashAPIKey("hello"))
	assert.NotEqual(t, HashAPIKey("a"), HashAPIKey("b"))
}

func TestWorkerConfigs(t *testing.T) {
	gdb := openTestDB(t)

	project := createTestProject(t, gdb)

	now := time.Now().UTC()
	verified := Domain{ProjectID: project.ID, Hostname: "app.example.com", Verified: true, VerifiedAt: &now}
	require.NoError(t, gdb.Create(&verified).Error)
	pending := Domain{ProjectID: project.ID, Hostname: "staging.example.com", Verified: false}
	require.NoError(t, gdb.Create(&pending).Error)

	active := APIKey{ProjectID: project.ID, KeyHash: HashAPIKey("active"), IsActive: true}
	require.NoError(t, gdb.Create(&active).Error)
	revoked := APIKey{ProjectID: project.ID, KeyHash: HashAPIKey("revoked"), IsActive: false, RevokedAt: &now}
	require.NoError(t, gdb.Create(&revoked).Error)

	configs, err := WorkerConfigs(gdb)
	require.NoError(t, err)
	require.Len(t, configs, 1)

	cfg := configs[0]
	assert.Equal(t, project.ID, cfg.ProjectID)
	assert.Equal(t, "https://upstream.test", cfg.UpstreamURL)
	assert.Equal(t, []string{"app.example.com"}, cfg.Domains)
	assert.Equal(t, []string{HashAPIKey("active")}, cfg.KeyHashes)
}

func TestWorkerConfigsEmptyProject(t *testing.T) {
	gdb := openTestDB(t)
	createTestProject(t, gdb)

	configs, err := WorkerConfigs(gdb)
	require.NoError(t, err)
	require.Len(t, configs, 1)

	// Slices stay non-nil so the JSON projection renders [] not null.
	assert.NotNil(t, configs[0].Domains)
	assert.NotNil(t, configs[0].KeyHashes)
	assert.Empty(t, configs[0].Domains)
	assert.Empty(t, configs[0].KeyHashes)
}
