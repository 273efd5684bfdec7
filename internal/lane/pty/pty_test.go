package pty

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomallicino/terminal-demo-studio/internal/model"
)

func TestSessionRunsCommandAndWaitsForOutput(t *testing.T) {
	sess, err := Start("sh", 80, 24)
	require.NoError(t, err)
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	require.NoError(t, sess.Dispatch(ctx, model.Action{Kind: model.ActionCommand, Text: "echo hello-pty"}))
	require.NoError(t, sess.Dispatch(ctx, model.Action{Kind: model.ActionWaitFor, Target: "hello-pty", WaitMode: model.WaitDefault}))

	assert.Contains(t, sess.StreamTail(), "hello-pty")
}

func TestSessionRejectsInteractivePrimitives(t *testing.T) {
	sess, err := Start("sh", 80, 24)
	require.NoError(t, err)
	defer sess.Close()

	ctx := context.Background()
	err = sess.Dispatch(ctx, model.Action{Kind: model.ActionInput, Text: "x"})
	assert.ErrorContains(t, err, "interactive primitive unsupported")
}

func TestSessionExpectExitCode(t *testing.T) {
	sess, err := Start("sh", 80, 24)
	require.NoError(t, err)
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	require.NoError(t, sess.Dispatch(ctx, model.Action{Kind: model.ActionCommand, Text: "true"}))
	require.NoError(t, sess.Dispatch(ctx, model.Action{Kind: model.ActionExpectExitCode, ExitCode: 0}))
}
