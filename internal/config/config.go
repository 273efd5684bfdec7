// Package config resolves process environment variables exactly once, at
// dispatcher entry, into an immutable Resolved record. No other package
// reads os.Getenv.
package config

import (
	"os"
	"strconv"
	"time"
)

// Resolved carries every environment-derived setting for one process
// invocation. The run command resolves it once at entry and reads its
// logging, redaction and timeout settings; lanes do not receive it.
type Resolved struct {
	SetupTimeout time.Duration

	DockerHardening      bool
	DockerPidsLimit      int
	DockerNetwork        string
	DockerReadOnly       bool
	DockerImageRetention int

	LogJSON bool

	RedactPatterns []string
}

// Resolve reads the environment and applies defaults for anything unset.
func Resolve() Resolved {
	r := Resolved{
		SetupTimeout:         120 * time.Second,
		DockerHardening:      true,
		DockerPidsLimit:      512,
		DockerImageRetention: 3,
		RedactPatterns:       []string{`_API_KEY$`, `_TOKEN$`, `_SECRET$`},
	}

	if v, ok := envInt("TDS_SETUP_TIMEOUT_SECONDS"); ok {
		r.SetupTimeout = time.Duration(v) * time.Second
	}
	if v, ok := envBool("TDS_DOCKER_HARDENING"); ok {
		r.DockerHardening = v
	}
	if v, ok := envInt("TDS_DOCKER_PIDS_LIMIT"); ok {
		r.DockerPidsLimit = v
	}
	if v := os.Getenv("TDS_DOCKER_NETWORK"); v != "" {
		r.DockerNetwork = v
	}
	if v, ok := envBool("TDS_DOCKER_READ_ONLY"); ok {
		r.DockerReadOnly = v
	}
	if v, ok := envInt("TDS_DOCKER_IMAGE_RETENTION"); ok {
		r.DockerImageRetention = v
	}
	if v, ok := envBool("TDS_LOG_JSON"); ok {
		r.LogJSON = v
	}

	return r
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
