package visual

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomallicino/terminal-demo-studio/internal/model"
	"github.com/tomallicino/terminal-demo-studio/internal/redact"
)

func TestFakeEmulatorSendTextAndKey(t *testing.T) {
	emu := NewFakeEmulator(40, 10)
	require.NoError(t, emu.SendText("hello"))
	assert.Contains(t, emu.Screen(), "hello")

	require.NoError(t, emu.SendKey("enter"))
	buf, err := emu.TextBuffer()
	require.NoError(t, err)
	assert.Contains(t, buf, "hello")
}

func TestFakeEncoderWritesFrames(t *testing.T) {
	dir := t.TempDir()
	enc, err := NewFakeEncoder(dir, 20, 5)
	require.NoError(t, err)

	require.NoError(t, enc.EncodeFrame("hello\nworld"))
	require.NoError(t, enc.EncodeFrame("second frame"))

	out, err := enc.Close()
	require.NoError(t, err)
	assert.Equal(t, dir, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "frame_00000.png", entries[0].Name())
}

func TestRunExecutesScenarioAgainstFakeEmulator(t *testing.T) {
	dir := t.TempDir()
	enc, err := NewFakeEncoder(dir, 40, 10)
	require.NoError(t, err)
	emu := NewFakeEmulator(40, 10)

	sc := model.Scenario{
		Label: "demo",
		Actions: []model.Action{
			{Kind: model.ActionCommand, Text: "hello"},
			{Kind: model.ActionWaitFor, Target: "hello", WaitMode: model.WaitScreen},
			{Kind: model.ActionAssertScreenRegex, Regex: "hello"},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := Run(ctx, sc, model.PromptPolicy{}, emu, enc, nil, 0, redact.ModeOff, false)
	require.NoError(t, err)
	assert.True(t, result.Passed)

	frames, _ := os.ReadDir(dir)
	assert.NotEmpty(t, frames)
}

func TestRunRejectsExpectExitCode(t *testing.T) {
	emu := NewFakeEmulator(40, 10)
	sc := model.Scenario{
		Label:   "demo",
		Actions: []model.Action{{Kind: model.ActionExpectExitCode, ExitCode: 0}},
	}
	_, err := Run(context.Background(), sc, model.PromptPolicy{}, emu, nil, nil, 0, redact.ModeOff, false)
	assert.ErrorContains(t, err, "not supported")
}

func TestRunAbortsOnPolicyDecision(t *testing.T) {
	emu := NewFakeEmulator(40, 10)
	require.NoError(t, emu.SendText("Proceed? [y/N]"))

	sc := model.Scenario{
		Label:   "demo",
		Actions: []model.Action{{Kind: model.ActionWaitFor, Target: "Proceed", WaitMode: model.WaitScreen}},
	}
	policy := model.PromptPolicy{
		Mode:        model.PromptManual,
		PromptRegex: `Proceed\?`,
		MaxRounds:   1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Run(ctx, sc, policy, emu, nil, nil, 0, redact.ModeOff, false)
	assert.ErrorContains(t, err, "policy abort")
}

func TestNewFakeEncoderCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	_, err := NewFakeEncoder(dir, 10, 10)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}
