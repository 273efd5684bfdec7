package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomallicino/terminal-demo-studio/internal/artifact"
	"github.com/tomallicino/terminal-demo-studio/internal/config"
	"github.com/tomallicino/terminal-demo-studio/internal/dispatch"
	"github.com/tomallicino/terminal-demo-studio/internal/document"
	"github.com/tomallicino/terminal-demo-studio/internal/fault"
	"github.com/tomallicino/terminal-demo-studio/internal/lane/pty"
	"github.com/tomallicino/terminal-demo-studio/internal/lane/scripted"
	"github.com/tomallicino/terminal-demo-studio/internal/lane/visual"
	"github.com/tomallicino/terminal-demo-studio/internal/logging"
	"github.com/tomallicino/terminal-demo-studio/internal/model"
	"github.com/tomallicino/terminal-demo-studio/internal/redact"
)

var runCmd = &cobra.Command{
	Use:     "run <screenplay.yaml>",
	Short:   "Execute a screenplay and record media",
	GroupID: groupExec,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScreenplay(cmd, args[0])
	},
}

var renderCmd = &cobra.Command{
	Use:     "render <screenplay.yaml>",
	Short:   "Synonym of run",
	GroupID: groupExec,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScreenplay(cmd, args[0])
	},
}

// runScreenplay loads, validates, lints, and executes one screenplay
// end to end: lane/location resolution, artifact creation, per-scenario
// dispatch to the resolved lane, compositing, and the final summary.
func runScreenplay(cmd *cobra.Command, path string) error {
	cfg := config.Resolve()
	logger := logging.New(cfg.LogJSON, flagVerbose)

	raw, err := document.Load(path)
	if err != nil {
		return fault.New(fault.ValidationError, err.Error(), nil)
	}

	sp, errs := model.Build(raw)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return fault.Validation("screenplay", fmt.Sprintf("%d validation error(s)", len(errs)))
	}

	for _, finding := range model.Lint(sp, false) {
		logger.Warn(finding.String())
	}

	requestedLane := model.Lane(flagMode)
	lane, err := dispatch.ResolveLane(requestedLane, sp)
	if err != nil {
		return fault.New(fault.ValidationError, err.Error(), nil)
	}

	requestedLoc := dispatch.LocationAuto
	switch {
	case flagLocal:
		requestedLoc = dispatch.LocationLocal
	case flagDocker:
		requestedLoc = dispatch.LocationDocker
	}
	localTool := localToolFor(lane)
	location, err := dispatch.ResolveLocation(requestedLoc, lane, localTool, dispatch.DefaultToolProbe)
	if err != nil {
		return fault.New(fault.ToolUnavailable, err.Error(), nil)
	}
	logger.Info("resolved execution plan", "lane", lane, "location", location)

	root, err := os.Getwd()
	if err != nil {
		return fault.New(fault.Internal, err.Error(), nil)
	}
	run, err := artifact.Create(root)
	if err != nil {
		return fault.New(fault.SetupError, err.Error(), nil)
	}
	defer run.Close()

	if err := run.WriteManifest(artifact.Manifest{
		RunID:    run.ID,
		Lane:     string(lane),
		Settings: sp.Settings,
		Title:    sp.Title,
		Created:  time.Now(),
	}); err != nil {
		return fault.New(fault.SetupError, err.Error(), nil)
	}

	redactSet := redact.FromVariables(sp.Variables, cfg.RedactPatterns)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SetupTimeout+10*time.Minute)
	defer cancel()

	started := time.Now()
	status := "passed"
	reason := ""
	var mediaGIF, mediaMP4 string

	switch lane {
	case model.LaneScripted:
		mediaMP4, err = runScripted(run, sp)
	case model.LaneInteractive:
		err = runInteractive(ctx, run, sp)
	case model.LaneVisual:
		mediaGIF, err = runVisual(ctx, run, sp, redact.Mode(flagRedact), !redactSet.Empty())
	default:
		err = fmt.Errorf("unresolved lane %q", lane)
	}

	if err != nil {
		status = "failed"
		reason = err.Error()
		_ = run.WriteFailure(reason, "", nil, "", redactSet)
		logger.Error("run failed", "reason", reason)
	}

	if werr := run.WriteSummary(artifact.Summary{
		Status:    status,
		Lane:      string(lane),
		MediaGIF:  mediaGIF,
		MediaMP4:  mediaMP4,
		StartedAt: started,
		EndedAt:   time.Now(),
		Reason:    reason,
	}); werr != nil {
		return fault.New(fault.Internal, werr.Error(), nil)
	}

	if err != nil {
		return fault.New(fault.StepFailure, reason, nil)
	}
	return nil
}

func localToolFor(lane model.Lane) string {
	switch lane {
	case model.LaneScripted:
		return "vhs"
	case model.LaneVisual:
		return "asciinema"
	default:
		return "sh"
	}
}

func runScripted(run *artifact.Run, sp *model.Screenplay) (string, error) {
	rec := scripted.FakeRecorder{}
	var scenePaths []string
	for i, sc := range sp.Scenarios {
		_, scenePath, err := scripted.Run(run, i, sc, rec)
		if scenePath != "" {
			scenePaths = append(scenePaths, scenePath)
		}
		if err != nil {
			return "", fmt.Errorf("scenario %q: %w", sc.Label, err)
		}
	}
	mediaDir, err := run.MediaDir()
	if err != nil {
		return "", err
	}
	output := filepath.Join(mediaDir, "demo.mp4")
	playback := sp.Playback
	if flagPlayback != "" {
		playback = model.Playback(flagPlayback)
	}
	if err := scripted.Composite(playback, scenePaths, output); err != nil {
		return "", err
	}
	return output, nil
}

func runInteractive(ctx context.Context, run *artifact.Run, sp *model.Screenplay) error {
	for i, sc := range sp.Scenarios {
		shell := sc.Shell
		sess, err := pty.Start(shell, sp.Settings.Width, sp.Settings.Height)
		if err != nil {
			return fmt.Errorf("scenario %q: starting session: %w", sc.Label, err)
		}
		for _, setup := range sc.Setup {
			if err := sess.Dispatch(ctx, model.Action{Kind: model.ActionCommand, Text: setup}); err != nil {
				_ = sess.Close()
				return fmt.Errorf("scenario %q: setup: %w", sc.Label, err)
			}
		}
		for j, a := range sc.Actions {
			_ = run.AppendEvent(artifact.Event{
				Timestamp:     time.Now(),
				Kind:          "dispatched",
				ScenarioIndex: i,
				StepIndex:     j,
				Scenario:      sc.Label,
				Action:        string(a.Kind),
			})

			stepCtx, stepCancel := ctx, func() {}
			if a.Timeout != nil {
				stepCtx, stepCancel = context.WithTimeout(ctx, *a.Timeout)
			}
			err := sess.Dispatch(stepCtx, a)
			timedOut := stepCtx.Err() != nil
			stepCancel()

			kind := "passed"
			detail := ""
			if err != nil {
				kind = "failed"
				if timedOut {
					kind = "timed_out"
				}
				detail = err.Error()
			}
			_ = run.AppendEvent(artifact.Event{
				Timestamp:     time.Now(),
				Kind:          kind,
				ScenarioIndex: i,
				StepIndex:     j,
				Scenario:      sc.Label,
				Action:        string(a.Kind),
				Detail:        detail,
			})

			if err != nil {
				_ = sess.Close()
				return fmt.Errorf("scenario %d %q: %w", i, sc.Label, err)
			}
		}
		if err := sess.Close(); err != nil {
			return fmt.Errorf("scenario %q: closing session: %w", sc.Label, err)
		}
	}
	return nil
}

func runVisual(ctx context.Context, run *artifact.Run, sp *model.Screenplay, redactMode redact.Mode, heuristicSensitive bool) (string, error) {
	mediaDir, err := run.MediaDir()
	if err != nil {
		return "", err
	}
	for i, sc := range sp.Scenarios {
		framesDir := filepath.Join(mediaDir, fmt.Sprintf("scene_%d_frames", i))
		encoder, err := visual.NewFakeEncoder(framesDir, sp.Settings.Width, sp.Settings.Height)
		if err != nil {
			return "", err
		}
		emu := visual.NewFakeEmulator(sp.Settings.Width, sp.Settings.Height)
		policy := sp.EffectivePolicy(i)
		if flagAgentPrompts != "" && flagAgentPrompts != string(model.PromptAuto) {
			policy.Mode = model.PromptMode(flagAgentPrompts)
		}
		result, err := visual.Run(ctx, sc, policy, emu, encoder, run, i, redactMode, heuristicSensitive)
		if _, perr := encoder.Close(); perr != nil && err == nil {
			err = perr
		}
		if err != nil {
			return "", fmt.Errorf("scenario %q: %w", sc.Label, err)
		}
		if !result.Passed {
			return "", fmt.Errorf("scenario %q did not pass", sc.Label)
		}
	}
	return mediaDir, nil
}
