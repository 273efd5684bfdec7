package visual

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tomallicino/terminal-demo-studio/internal/artifact"
	"github.com/tomallicino/terminal-demo-studio/internal/evaluator"
	"github.com/tomallicino/terminal-demo-studio/internal/lane"
	"github.com/tomallicino/terminal-demo-studio/internal/model"
	"github.com/tomallicino/terminal-demo-studio/internal/policy"
	"github.com/tomallicino/terminal-demo-studio/internal/redact"
)

// SampleInterval is the cadence the sampling loop ticks at. Every tick
// evaluates the active wait condition (if any), runs the Policy Engine, and
// records a frame, in that order — the Policy Engine runs unconditionally on
// every tick, including while a wait_for/wait_stable/sleep action is still in
// flight, so a prompt that appears mid-wait doesn't have to wait for the wait
// itself to resolve before it can be serviced.
const SampleInterval = 100 * time.Millisecond

// tickMsg drives the sampling loop. Init and every onTick reschedule one via
// tea.Tick, so the scenario runs to completion as an ordinary bubbletea
// event loop rather than a blocking for-loop.
type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(SampleInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

type waitKind int

const (
	waitNone waitKind = iota
	waitSleep
	waitStable
	waitCondition
)

type phaseKind int

const (
	phaseAdvance phaseKind = iota
	phaseWaiting
	phaseDone
)

// visualModel is the tea.Model driving one scenario's actions against a
// FakeEmulator. It holds no blocking calls: every wait is decomposed into a
// per-tick condition check so onTick can run the Policy Engine on every
// sampling tick regardless of what the active action is doing.
type visualModel struct {
	ctx           context.Context
	sc            model.Scenario
	emu           *FakeEmulator
	encoder       FrameEncoder
	policy        model.PromptPolicy
	run           *artifact.Run
	scenarioIndex int
	redactMode    redact.Mode
	sensitive     bool

	actionIdx int
	phase     phaseKind
	round     int
	seq       int

	wait        waitKind
	waitSampler evaluator.Sampler
	waitCond    evaluator.Condition
	waitDeadline time.Time
	waitDuration time.Duration
	stableSince  time.Time
	lastHash     [32]byte
	stableFirst  bool

	stepStarted   time.Time
	lastAction    *model.Action
	lastInputText string

	result lane.ScenarioResult
	err    error
	done   bool
}

func newVisualModel(ctx context.Context, sc model.Scenario, effectivePolicy model.PromptPolicy, emu *FakeEmulator, encoder FrameEncoder, run *artifact.Run, scenarioIndex int, redactMode redact.Mode, heuristicSensitive bool) *visualModel {
	return &visualModel{
		ctx: ctx, sc: sc, emu: emu, encoder: encoder, policy: effectivePolicy,
		run: run, scenarioIndex: scenarioIndex, redactMode: redactMode, sensitive: heuristicSensitive,
		result: lane.ScenarioResult{Label: sc.Label, Lane: model.LaneVisual, Started: time.Now()},
	}
}

func (m *visualModel) Init() tea.Cmd { return tickCmd() }

func (m *visualModel) View() string { return "" }

func (m *visualModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tickMsg); !ok {
		return m, nil
	}
	if m.done {
		return m, tea.Quit
	}

	m.seq++

	if m.ctx.Err() != nil {
		m.failCurrentStep("timed_out", m.ctx.Err().Error())
		m.finish(false, m.ctx.Err().Error())
		return m, tea.Quit
	}

	if m.phase == phaseWaiting && m.waitSatisfied() {
		m.completeStep(lane.Passed, "")
		m.actionIdx++
		m.phase = phaseAdvance
	}

	m.runPolicy()
	if m.done {
		return m, tea.Quit
	}

	if m.phase == phaseAdvance {
		m.advance()
	}

	if err := m.recordFrame(); err != nil && !m.done {
		m.finish(false, fmt.Sprintf("encoding frame: %s", err))
	}

	if m.done {
		return m, tea.Quit
	}
	return m, tickCmd()
}

// runPolicy evaluates the Policy Engine against the current screen and acts
// on its decision. It is called on every tick regardless of phase.
func (m *visualModel) runPolicy() {
	decision := policy.Decide(m.emu.Screen(), m.policy, m.round, m.lastAction)
	switch decision.Outcome {
	case policy.Approve, policy.Deny:
		m.round++
		kind := "approved"
		if decision.Outcome == policy.Deny {
			kind = "denied"
		}
		if err := m.emu.SendKey(decision.Key); err != nil {
			m.finish(false, err.Error())
			return
		}
		m.emitEvent(kind, "")
	case policy.Abort:
		m.emitEvent("failed", decision.Reason)
		m.completeStep(lane.Failed, decision.Reason)
		m.finish(false, fmt.Sprintf("policy abort: %s", decision.Reason))
	case policy.Skip:
		m.round = 0
	}
}

// advance dispatches actions until the scenario needs to suspend on a wait,
// fails, or runs out of actions.
func (m *visualModel) advance() {
	for {
		if m.actionIdx >= len(m.sc.Actions) {
			m.finish(true, "")
			return
		}
		a := m.sc.Actions[m.actionIdx]
		m.stepStarted = time.Now()

		if a.Kind == model.ActionExpectExitCode {
			reason := "expect_exit_code is not supported in the visual lane"
			m.emitEvent("failed", reason)
			m.completeStep(lane.Failed, reason)
			m.finish(false, reason)
			return
		}

		m.emitEvent("dispatched", "")

		switch a.Kind {
		case model.ActionCommand, model.ActionInput, model.ActionKey, model.ActionHotkey:
			if err := dispatchToFake(m.emu, a); err != nil {
				m.failStep(err)
				return
			}
			if a.Kind == model.ActionCommand || a.Kind == model.ActionInput {
				m.lastInputText = a.Text
				ref := m.sc.Actions[m.actionIdx]
				m.lastAction = &ref
			}
			m.completeStep(lane.Passed, "")
			m.actionIdx++
			continue

		case model.ActionSleep:
			m.wait = waitSleep
			m.waitDeadline = time.Now().Add(a.Duration)
			m.phase = phaseWaiting
			m.emitEvent("waiting", "")
			return

		case model.ActionWaitStable:
			m.wait = waitStable
			m.waitDuration = a.Duration
			m.stableFirst = true
			m.phase = phaseWaiting
			m.emitEvent("waiting", "")
			return

		case model.ActionWaitFor:
			m.wait = waitCondition
			m.waitSampler = surfaceSampler(m.emu, a.WaitMode)
			m.waitCond = evaluator.Contains(a.Target)
			m.phase = phaseWaiting
			m.emitEvent("waiting", "")
			return

		case model.ActionWaitScreenRegex, model.ActionWaitLineRegex:
			re, err := compileRegex(a.Regex)
			if err != nil {
				m.failStep(err)
				return
			}
			m.wait = waitCondition
			if a.Kind == model.ActionWaitScreenRegex {
				m.waitSampler = m.emu.Screen
			} else {
				m.waitSampler = m.emu.LastNonEmptyLine
			}
			m.waitCond = evaluator.Matches(re)
			m.phase = phaseWaiting
			m.emitEvent("waiting", "")
			return

		case model.ActionAssertScreenRegex, model.ActionAssertNotScreenRegex:
			re, err := compileRegex(a.Regex)
			if err != nil {
				m.failStep(err)
				return
			}
			wantMatch := a.Kind == model.ActionAssertScreenRegex
			matched := evaluator.Expect(m.emu.Screen, evaluator.Matches(re))
			if matched != wantMatch {
				m.failStep(fmt.Errorf("regex %q match=%v, want %v", a.Regex, matched, wantMatch))
				return
			}
			m.completeStep(lane.Passed, "")
			m.actionIdx++
			continue

		default:
			m.failStep(fmt.Errorf("unsupported action kind %q in visual lane", a.Kind))
			return
		}
	}
}

func (m *visualModel) waitSatisfied() bool {
	switch m.wait {
	case waitSleep:
		return !time.Now().Before(m.waitDeadline)
	case waitStable:
		h := m.emu.StabilityHash()
		if m.stableFirst || h != m.lastHash {
			m.lastHash = h
			m.stableSince = time.Now()
			m.stableFirst = false
			return false
		}
		return time.Since(m.stableSince) >= m.waitDuration
	case waitCondition:
		return m.waitCond(m.waitSampler())
	default:
		return true
	}
}

func (m *visualModel) failStep(err error) {
	kind := "failed"
	if m.ctx.Err() != nil {
		kind = "timed_out"
	}
	m.emitEvent(kind, err.Error())
	m.completeStep(lane.Failed, err.Error())
	m.finish(false, err.Error())
}

func (m *visualModel) failCurrentStep(kind, detail string) {
	m.emitEvent(kind, detail)
	state := lane.Failed
	if kind == "timed_out" {
		state = lane.TimedOut
	}
	m.completeStep(state, detail)
}

func (m *visualModel) completeStep(state lane.StepState, reason string) {
	if m.actionIdx >= len(m.sc.Actions) {
		return
	}
	step := lane.StepResult{
		Action: m.sc.Actions[m.actionIdx], State: state,
		Started: m.stepStarted, Ended: time.Now(), Reason: reason,
	}
	m.result.Steps = append(m.result.Steps, step)
	if state == lane.Passed {
		m.emitEvent("passed", "")
	}
}

func (m *visualModel) finish(passed bool, reason string) {
	if m.done {
		return
	}
	m.done = true
	m.phase = phaseDone
	m.result.Passed = passed
	m.result.Reason = reason
	m.result.Ended = time.Now()
	if !passed {
		m.err = errors.New(reason)
	}
}

// recordFrame samples the current screen and hands it to the encoder,
// masking the most recently dispatched Input/Command line first when the
// redaction mode calls for it.
func (m *visualModel) recordFrame() error {
	if m.encoder == nil {
		return nil
	}
	screen := m.emu.Screen()
	if m.lastInputText != "" && redact.ShouldMaskInputLine(m.redactMode, m.sensitive) {
		screen = redact.NewSet(m.lastInputText).Redact(screen)
	}
	return m.encoder.EncodeFrame(screen)
}

func (m *visualModel) emitEvent(kind, detail string) {
	if m.run == nil {
		return
	}
	action := ""
	if m.actionIdx < len(m.sc.Actions) {
		action = string(m.sc.Actions[m.actionIdx].Kind)
	}
	_ = m.run.AppendEvent(artifact.Event{
		Timestamp:     time.Now(),
		Kind:          kind,
		ScenarioIndex: m.scenarioIndex,
		StepIndex:     m.actionIdx,
		Scenario:      m.sc.Label,
		Action:        action,
		Detail:        detail,
	})
}

// modelSnapshot is what syncedModel forwards over its update channel: just
// enough to let an external reader observe progress without racing the
// bubbletea event loop's own goroutine.
type modelSnapshot struct {
	seq    int
	result lane.ScenarioResult
	done   bool
}

// syncedModel wraps visualModel the way the sampling loop's headless
// program expects: every Update forwards the freshly updated state over a
// non-blocking buffered channel, mirroring the sequence-counted
// channel/syncModelUpdates pattern used to keep a concurrency-safe read of
// an in-flight headless bubbletea program's state.
type syncedModel struct {
	inner   *visualModel
	updates chan modelSnapshot
}

func (w syncedModel) Init() tea.Cmd { return w.inner.Init() }

func (w syncedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := w.inner.Update(msg)
	nm, ok := next.(*visualModel)
	if !ok {
		return next, cmd
	}
	select {
	case w.updates <- modelSnapshot{seq: nm.seq, result: nm.result, done: nm.done}:
	default:
	}
	return syncedModel{inner: nm, updates: w.updates}, cmd
}

func (w syncedModel) View() string { return "" }

// syncModelUpdates drains a syncedModel's update channel into a
// mutex-guarded snapshot, taking the highest-sequence update it has seen so
// a reader never observes a snapshot older than one it already read.
func syncModelUpdates(updates chan modelSnapshot, mu *sync.Mutex, latest *modelSnapshot, done chan struct{}) {
	defer close(done)
	for snap := range updates {
		mu.Lock()
		if snap.seq >= latest.seq {
			*latest = snap
		}
		mu.Unlock()
	}
}

// Run drives one scenario's actions against a FakeEmulator using a headless
// bubbletea program: tea.WithoutRenderer, tea.WithInput(nil), and
// tea.WithOutput(io.Discard) keep the program from touching a real
// terminal, and its tea.Tick-driven sampling loop (SampleInterval) is the
// sole suspension point, exactly like evaluator.Await is for the other
// lanes. run may be nil to skip event recording (for callers, such as
// tests, that don't need runtime/events.jsonl).
// ExpectExitCode is rejected: it has no meaning in this lane.
func Run(ctx context.Context, sc model.Scenario, effectivePolicy model.PromptPolicy, emu *FakeEmulator, encoder FrameEncoder, run *artifact.Run, scenarioIndex int, redactMode redact.Mode, heuristicSensitive bool) (lane.ScenarioResult, error) {
	m := newVisualModel(ctx, sc, effectivePolicy, emu, encoder, run, scenarioIndex, redactMode, heuristicSensitive)

	updates := make(chan modelSnapshot, 8)
	var mu sync.Mutex
	latest := modelSnapshot{result: m.result}
	syncDone := make(chan struct{})
	go syncModelUpdates(updates, &mu, &latest, syncDone)

	prog := tea.NewProgram(
		syncedModel{inner: m, updates: updates},
		tea.WithContext(ctx),
		tea.WithoutRenderer(),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, runErr := prog.Run()
	close(updates)
	<-syncDone

	result := m.result
	if fm, ok := finalModel.(syncedModel); ok {
		result = fm.inner.result
		if fm.inner.err != nil && runErr == nil {
			runErr = fm.inner.err
		}
	}

	if runErr != nil {
		if !result.Passed && result.Reason == "" {
			result.Reason = runErr.Error()
		}
		return result, runErr
	}
	if !result.Passed {
		reason := result.Reason
		if reason == "" {
			reason = "scenario did not pass"
		}
		return result, errors.New(reason)
	}
	return result, nil
}

func surfaceSampler(emu *FakeEmulator, mode model.WaitMode) evaluator.Sampler {
	switch mode {
	case model.WaitScreen:
		return emu.Screen
	case model.WaitLine:
		return emu.LastNonEmptyLine
	default:
		return emu.StreamTail
	}
}
