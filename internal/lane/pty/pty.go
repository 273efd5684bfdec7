// Package pty implements the Interactive lane: a single persistent child
// shell per scenario driven through a pseudoterminal.
package pty

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/tomallicino/terminal-demo-studio/internal/evaluator"
	"github.com/tomallicino/terminal-demo-studio/internal/model"
	"github.com/tomallicino/terminal-demo-studio/internal/screen"
)

func compileRegex(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}

// Session owns one child shell and its pseudoterminal for the lifetime of
// a scenario.
type Session struct {
	cmd  *exec.Cmd
	ptmx fileWriteCloser

	mu         sync.Mutex
	screen     *screen.Model
	lastExit   *int
	readerDone chan struct{}
}

type fileWriteCloser interface {
	io.ReadWriteCloser
}

// Start spawns shell (or "sh" if empty) under a pseudoterminal sized
// width x height and begins copying its output into an in-memory screen
// model.
func Start(shell string, width, height int) (*Session, error) {
	if shell == "" {
		shell = "sh"
	}
	cmd := exec.Command(shell)
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(width), Rows: uint16(height)})
	if err != nil {
		return nil, fmt.Errorf("starting pty: %w", err)
	}

	s := &Session{
		cmd:        cmd,
		ptmx:       ptmx,
		screen:     screen.NewModel(width, height, 64*1024),
		readerDone: make(chan struct{}),
	}

	go s.readLoop()
	return s, nil
}

func (s *Session) readLoop() {
	defer close(s.readerDone)
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.mu.Lock()
			_, _ = s.screen.Write(buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Screen returns the current rendered screen, satisfying lane.Snapshotter.
func (s *Session) Screen() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen.Screen()
}

// StreamTail returns the current raw stream tail.
func (s *Session) StreamTail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen.StreamTail()
}

// LastNonEmptyLine returns the screen's last non-empty line.
func (s *Session) LastNonEmptyLine() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen.LastNonEmptyLine()
}

// Dispatch sends one action to the shell. Input/Key/Hotkey are rejected:
// this lane only supports Command, Sleep/WaitStable/WaitFor, regex
// waits/asserts (wait_line_regex against the last non-empty line, the
// others against the screen surface), and ExpectExitCode.
func (s *Session) Dispatch(ctx context.Context, a model.Action) error {
	switch a.Kind {
	case model.ActionInput, model.ActionKey, model.ActionHotkey:
		return fmt.Errorf("interactive primitive unsupported in pty lane")
	case model.ActionCommand:
		_, err := io.WriteString(s.ptmx, a.Text+"\r")
		return err
	case model.ActionSleep:
		timer := time.NewTimer(a.Duration)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	case model.ActionWaitStable:
		return evaluator.Await(ctx, s.Screen, stableFor(s, a.Duration), evaluator.DefaultSampleInterval)
	case model.ActionWaitFor:
		return evaluator.Await(ctx, surfaceSampler(s, a.WaitMode), evaluator.Contains(a.Target), evaluator.DefaultSampleInterval)
	case model.ActionWaitScreenRegex:
		re, err := compileRegex(a.Regex)
		if err != nil {
			return err
		}
		return evaluator.Await(ctx, s.Screen, evaluator.Matches(re), evaluator.DefaultSampleInterval)
	case model.ActionWaitLineRegex:
		re, err := compileRegex(a.Regex)
		if err != nil {
			return err
		}
		return evaluator.Await(ctx, s.LastNonEmptyLine, evaluator.Matches(re), evaluator.DefaultSampleInterval)
	case model.ActionAssertScreenRegex:
		re, err := compileRegex(a.Regex)
		if err != nil {
			return err
		}
		if !evaluator.Expect(s.Screen, evaluator.Matches(re)) {
			return fmt.Errorf("assert_screen_regex %q did not match", a.Regex)
		}
		return nil
	case model.ActionAssertNotScreenRegex:
		re, err := compileRegex(a.Regex)
		if err != nil {
			return err
		}
		if evaluator.Expect(s.Screen, evaluator.Matches(re)) {
			return fmt.Errorf("assert_not_screen_regex %q unexpectedly matched", a.Regex)
		}
		return nil
	case model.ActionExpectExitCode:
		return s.recordExitCode(a.ExitCode)
	default:
		return fmt.Errorf("unsupported action kind %q in pty lane", a.Kind)
	}
}

// recordExitCode waits for the shell to report the exit status of its
// most recent command via a marker echo, then compares it to want. The
// shell's own $? is queried through a hidden probe command rather than
// process exit, since the session's child shell stays alive across steps.
func (s *Session) recordExitCode(want int) error {
	if _, err := io.WriteString(s.ptmx, "echo TDS_EXIT:$?\r"); err != nil {
		return err
	}
	deadline := time.Now().Add(2 * time.Second)
	marker := "TDS_EXIT:"
	for time.Now().Before(deadline) {
		tail := s.StreamTail()
		if idx := lastIndex(tail, marker); idx >= 0 {
			var code int
			if _, err := fmt.Sscanf(tail[idx:], marker+"%d", &code); err == nil {
				s.mu.Lock()
				s.lastExit = &code
				s.mu.Unlock()
				if code != want {
					return fmt.Errorf("expect_exit_code: want %d, got %d", want, code)
				}
				return nil
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("expect_exit_code: exit marker not observed before deadline")
}

// Close terminates the child shell and closes the pseudoterminal,
// regardless of the scenario's outcome.
func (s *Session) Close() error {
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(syscall.SIGTERM)
		done := make(chan struct{})
		go func() { _ = s.cmd.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			_ = s.cmd.Process.Kill()
		}
	}
	return s.ptmx.Close()
}

func stableFor(s *Session, d time.Duration) evaluator.Condition {
	var lastHash [32]byte
	var stableSince time.Time
	return func(_ string) bool {
		s.mu.Lock()
		h := s.screen.StabilityHash()
		s.mu.Unlock()
		if h != lastHash {
			lastHash = h
			stableSince = time.Now()
			return false
		}
		return !stableSince.IsZero() && time.Since(stableSince) >= d
	}
}

func surfaceSampler(s *Session, mode model.WaitMode) evaluator.Sampler {
	switch mode {
	case model.WaitScreen:
		return s.Screen
	case model.WaitLine:
		return s.LastNonEmptyLine
	default:
		return s.StreamTail
	}
}

func lastIndex(s, substr string) int {
	for i := len(s) - len(substr); i >= 0; i-- {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
