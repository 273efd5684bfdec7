package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveDefaults(t *testing.T) {
	r := Resolved{
		SetupTimeout:         120 * time.Second,
		DockerHardening:      true,
		DockerPidsLimit:      512,
		DockerImageRetention: 3,
	}
	got := Resolve()
	assert.Equal(t, r.SetupTimeout, got.SetupTimeout)
	assert.Equal(t, r.DockerHardening, got.DockerHardening)
	assert.Equal(t, r.DockerPidsLimit, got.DockerPidsLimit)
	assert.Equal(t, r.DockerImageRetention, got.DockerImageRetention)
	assert.Equal(t, []string{`_API_KEY$`, `_TOKEN$`, `_SECRET$`}, got.RedactPatterns)
}

func TestResolveHonorsEnv(t *testing.T) {
	t.Setenv("TDS_SETUP_TIMEOUT_SECONDS", "30")
	t.Setenv("TDS_DOCKER_HARDENING", "false")
	t.Setenv("TDS_DOCKER_PIDS_LIMIT", "64")
	t.Setenv("TDS_DOCKER_NETWORK", "isolated")
	t.Setenv("TDS_DOCKER_READ_ONLY", "true")
	t.Setenv("TDS_DOCKER_IMAGE_RETENTION", "1")
	t.Setenv("TDS_LOG_JSON", "1")

	got := Resolve()
	assert.Equal(t, 30*time.Second, got.SetupTimeout)
	assert.False(t, got.DockerHardening)
	assert.Equal(t, 64, got.DockerPidsLimit)
	assert.Equal(t, "isolated", got.DockerNetwork)
	assert.True(t, got.DockerReadOnly)
	assert.Equal(t, 1, got.DockerImageRetention)
	assert.True(t, got.LogJSON)
}

func TestResolveIgnoresMalformedValues(t *testing.T) {
	t.Setenv("TDS_SETUP_TIMEOUT_SECONDS", "not-a-number")
	got := Resolve()
	assert.Equal(t, 120*time.Second, got.SetupTimeout)
}
