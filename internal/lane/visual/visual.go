// Package visual implements the Visual lane: driving a real terminal
// emulator's remote-control protocol and a screen-video encoder. The real
// emulator and encoder binaries are out of scope; EmulatorControl and
// FrameEncoder are defined as interfaces with an in-process fake used by
// tests and by the local fallback path, rendering frames from the same
// in-memory screen model the PTY lane uses.
package visual

import (
	"fmt"
	"regexp"

	"github.com/tomallicino/terminal-demo-studio/internal/keymap"
	"github.com/tomallicino/terminal-demo-studio/internal/model"
	"github.com/tomallicino/terminal-demo-studio/internal/screen"
)

func compileRegex(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}

// EmulatorControl is the remote-control boundary to a real terminal
// emulator: sending keystrokes and reading back its text buffer.
type EmulatorControl interface {
	SendKey(token string) error
	SendText(text string) error
	TextBuffer() (string, error)
	Close() error
}

// FrameEncoder is the screen-video encoder boundary: one frame per
// sampling tick, flushed to a container file on Close.
type FrameEncoder interface {
	EncodeFrame(screenText string) error
	Close() (outputPath string, err error)
}

// FakeEmulator drives the same in-memory screen model the PTY lane uses,
// standing in for a real emulator's remote-control socket. Keystrokes are
// interpreted the way the directive compiler's Command/Input mapping
// would be, so the in-process fallback exercises the same semantics a
// real emulator session would.
type FakeEmulator struct {
	screen *screen.Model
}

// NewFakeEmulator creates a fake sized width x height.
func NewFakeEmulator(width, height int) *FakeEmulator {
	return &FakeEmulator{screen: screen.NewModel(width, height, 64*1024)}
}

func (f *FakeEmulator) SendKey(token string) error {
	b, err := keymap.ToANSI(token)
	if err != nil {
		return err
	}
	_, err = f.screen.Write(b)
	return err
}

func (f *FakeEmulator) SendText(text string) error {
	_, err := f.screen.Write([]byte(text))
	return err
}

func (f *FakeEmulator) TextBuffer() (string, error) {
	return f.screen.Screen(), nil
}

func (f *FakeEmulator) Close() error { return nil }

// Screen exposes the underlying model directly so the lane's Dispatch
// loop can sample it without round-tripping through TextBuffer's error
// return on every tick.
func (f *FakeEmulator) Screen() string           { return f.screen.Screen() }
func (f *FakeEmulator) StreamTail() string       { return f.screen.StreamTail() }
func (f *FakeEmulator) LastNonEmptyLine() string { return f.screen.LastNonEmptyLine() }
func (f *FakeEmulator) StabilityHash() [32]byte  { return f.screen.StabilityHash() }

// dispatchToFake applies one action's key/text effect to a FakeEmulator,
// used by the local fallback path when no real emulator remote-control
// socket is available. Wait/assert/sleep actions are handled by the
// caller's evaluator loop against Screen/StreamTail/LastNonEmptyLine, not
// here.
func dispatchToFake(f *FakeEmulator, a model.Action) error {
	switch a.Kind {
	case model.ActionCommand:
		if err := f.SendText(a.Text); err != nil {
			return err
		}
		return f.SendKey(keymap.Enter)
	case model.ActionInput:
		return f.SendText(a.Text)
	case model.ActionKey, model.ActionHotkey:
		return f.SendKey(a.Key)
	default:
		return fmt.Errorf("action kind %q has no direct key/text effect", a.Kind)
	}
}
