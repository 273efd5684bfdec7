package fault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(Validation("scenarios[0].actions[1].timeout", "duration cannot be negative")))
	assert.Equal(t, 3, ExitCode(New(ToolUnavailable, "asciinema not found", nil)))
	assert.Equal(t, 1, ExitCode(New(StepFailure, "assertion did not hold", nil)))
	assert.Equal(t, 1, ExitCode(New(Timeout, "wait_for exceeded deadline", nil)))
}

func TestHandlerStopOnFatal(t *testing.T) {
	h := NewHandler("pty", nil)
	assert.True(t, h.ShouldContinue())

	h.Record(New(StepFailure, "boom", nil))
	assert.False(t, h.ShouldContinue())
	assert.True(t, h.HasFatal())
}

func TestHandlerToleratesRecoverableUpToLimit(t *testing.T) {
	h := NewHandler("visual", &Policy{StopOnFatal: true, MaxRecoverable: 2})
	for i := 0; i < 2; i++ {
		h.Record(New(StepFailure, "retrying", nil).WithSeverity(Recoverable).WithAttempt(i + 1))
	}
	require.True(t, h.ShouldContinue())

	h.Record(New(StepFailure, "one too many", nil).WithSeverity(Recoverable))
	assert.False(t, h.ShouldContinue())
}

func TestFaultDetailIncludesContext(t *testing.T) {
	f := New(PolicyAbort, "approve policy did not match allow_regex", Context{"rule": "allow_regex"})
	detail := f.Detail()
	assert.Contains(t, detail, "policy_abort")
	assert.Contains(t, detail, "rule: allow_regex")
}

func TestValidationFaultCarriesFieldPath(t *testing.T) {
	f := Validation("variables.API_TOKEN", "must not be empty")
	assert.Equal(t, "variables.API_TOKEN", f.FieldPath)
	assert.Contains(t, f.Error(), "variables.API_TOKEN")
}
