// Package scripted implements the Scripted lane: compiling a scenario into
// a directive program for an external headless terminal recorder, then
// compositing the per-scenario media into final output.
package scripted

import (
	"fmt"
	"strings"

	"github.com/tomallicino/terminal-demo-studio/internal/model"
)

// Compile turns one scenario's actions into a directive program in the
// recorder's line-oriented tape format; a Command becomes a Type line
// followed by an Enter line, every other action a single line. Regex
// waits/assertions compile to a marker comment that ResolvePredicates checks
// against the recorder's text capture after recording, since the recorder
// itself has no regex engine.
func Compile(sc model.Scenario) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Output scene.mp4\n")
	if sc.Shell != "" {
		fmt.Fprintf(&b, "Set Shell %q\n", sc.Shell)
	}
	for _, a := range sc.Actions {
		writeDirective(&b, a)
	}
	return b.String()
}

func writeDirective(b *strings.Builder, a model.Action) {
	switch a.Kind {
	case model.ActionCommand:
		fmt.Fprintf(b, "Type %q\n", a.Text)
		b.WriteString("Enter\n")
	case model.ActionInput:
		fmt.Fprintf(b, "Type %q\n", a.Text)
	case model.ActionKey, model.ActionHotkey:
		fmt.Fprintf(b, "%s\n", normalizeDirectiveKey(a.Key))
	case model.ActionSleep:
		fmt.Fprintf(b, "Sleep %s\n", a.Duration)
	case model.ActionWaitStable:
		fmt.Fprintf(b, "Wait+Screen %s\n", a.Duration)
	case model.ActionWaitFor:
		fmt.Fprintf(b, "Wait+%s %q\n", waitSurface(a.WaitMode), a.Target)
	case model.ActionWaitScreenRegex:
		fmt.Fprintf(b, "# predicate: wait_screen_regex %q\n", a.Regex)
	case model.ActionWaitLineRegex:
		fmt.Fprintf(b, "# predicate: wait_line_regex %q\n", a.Regex)
	case model.ActionAssertScreenRegex:
		fmt.Fprintf(b, "# predicate: assert_screen_regex %q\n", a.Regex)
	case model.ActionAssertNotScreenRegex:
		fmt.Fprintf(b, "# predicate: assert_not_screen_regex %q\n", a.Regex)
	}
}

func waitSurface(mode model.WaitMode) string {
	switch mode {
	case model.WaitScreen:
		return "Screen"
	case model.WaitLine:
		return "Line"
	default:
		return "Tail"
	}
}

// normalizeDirectiveKey maps a screenplay key token to the recorder's
// capitalized key-directive spelling; ctrl+<char> chords become
// Ctrl+<CHAR>. A token outside these is emitted as a Type directive.
func normalizeDirectiveKey(key string) string {
	switch strings.ToLower(key) {
	case "enter":
		return "Enter"
	case "tab":
		return "Tab"
	case "escape":
		return "Escape"
	case "backspace":
		return "Backspace"
	case "up":
		return "Up"
	case "down":
		return "Down"
	case "left":
		return "Left"
	case "right":
		return "Right"
	case "space":
		return "Space"
	default:
		if ctrl, ok := strings.CutPrefix(strings.ToLower(key), "ctrl+"); ok && len(ctrl) == 1 {
			return "Ctrl+" + strings.ToUpper(ctrl)
		}
		return fmt.Sprintf("Type %q", key)
	}
}
