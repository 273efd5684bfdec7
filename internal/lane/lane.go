// Package lane defines the state machine and result types shared by the
// scripted, interactive (PTY), and visual lane runtimes.
package lane

import (
	"time"

	"github.com/tomallicino/terminal-demo-studio/internal/model"
)

// StepState is one state in the per-action state machine: pending →
// dispatched → waiting → asserting → (passed | failed | timed_out).
// Passed, Failed, and TimedOut are terminal.
type StepState string

const (
	Pending    StepState = "pending"
	Dispatched StepState = "dispatched"
	Waiting    StepState = "waiting"
	Asserting  StepState = "asserting"
	Passed     StepState = "passed"
	Failed     StepState = "failed"
	TimedOut   StepState = "timed_out"
)

// Terminal reports whether s cannot transition further.
func (s StepState) Terminal() bool {
	return s == Passed || s == Failed || s == TimedOut
}

// StepResult records the outcome of one action.
type StepResult struct {
	Action   model.Action
	State    StepState
	Started  time.Time
	Ended    time.Time
	Reason   string // populated on Failed/TimedOut
	ExitCode *int   // ExpectExitCode only
}

// ScenarioResult records the outcome of one scenario.
type ScenarioResult struct {
	Label   string
	Lane    model.Lane
	Steps   []StepResult
	Passed  bool
	Reason  string
	Started time.Time
	Ended   time.Time
}

// FailedStep returns the first step that failed or timed out, and whether
// there was one.
func (r ScenarioResult) FailedStep() (StepResult, bool) {
	for _, s := range r.Steps {
		if s.State == Failed || s.State == TimedOut {
			return s, true
		}
	}
	return StepResult{}, false
}

// Snapshotter is the minimal read surface the evaluator and policy engine
// need from whatever screen/stream model a lane is built on.
type Snapshotter interface {
	Screen() string
	StreamTail() string
	LastNonEmptyLine() string
}
