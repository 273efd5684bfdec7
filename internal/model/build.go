package model

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// fieldError is a single validation failure with a precise field path,
// aggregated across the whole document before Build returns — validation
// is total, per SPEC_FULL.md §4.1: partial screenplays are never executed.
type fieldError struct {
	path   string
	reason string
}

func (e fieldError) Error() string { return fmt.Sprintf("%s: %s", e.path, e.reason) }

type builder struct {
	errs []error
}

func (b *builder) fail(path, reason string, args ...any) {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}
	b.errs = append(b.errs, fieldError{path: path, reason: reason})
}

// interpPattern matches {name} interpolation tokens.
var interpPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Build transforms a decoded document (as produced by internal/document,
// typically map[string]any) into a validated Screenplay. Variable
// interpolation runs before validation, as required by §4.1.
func Build(raw any) (*Screenplay, []error) {
	b := &builder{}

	doc, ok := asMap(raw)
	if !ok {
		b.fail("$", "document root must be a mapping")
		return nil, b.errs
	}

	variables := map[string]string{}
	if rawVars, ok := doc["variables"]; ok {
		vm, ok := asMap(rawVars)
		if !ok {
			b.fail("variables", "must be a mapping of string to string")
		} else {
			for k, v := range vm {
				s, ok := asString(v)
				if !ok {
					b.fail(fmt.Sprintf("variables.%s", k), "must be a string")
					continue
				}
				variables[k] = s
			}
		}
	}
	tmpDir, err := os.MkdirTemp("", "tds-run-*")
	if err != nil {
		b.fail("$", "could not allocate tmp_dir: %v", err)
	} else {
		variables["tmp_dir"] = tmpDir
	}

	sp := &Screenplay{
		Settings: DefaultSettings(),
		Variables: variables,
	}

	sp.Title, _ = asString(doc["title"])
	if strings.TrimSpace(sp.Title) == "" {
		b.fail("title", "is required")
	}

	sp.Output, _ = asString(doc["output"])
	if !isFilesystemSafeToken(sp.Output) {
		b.fail("output", "must be a non-empty filesystem-safe token")
	}

	if rawSettings, ok := doc["settings"]; ok {
		sp.Settings = b.buildSettings(rawSettings, variables)
	}

	sp.Playback = PlaybackSequential
	if rawPlayback, ok := doc["playback"]; ok {
		if s, ok := asString(rawPlayback); ok {
			switch Playback(s) {
			case PlaybackSequential, PlaybackSimultaneous:
				sp.Playback = Playback(s)
			default:
				b.fail("playback", "must be sequential or simultaneous, got %q", s)
			}
		}
	}

	if rawPolicy, ok := doc["agent_prompts"]; ok {
		sp.PromptPolicy = b.buildPolicy("agent_prompts", rawPolicy, variables)
	}

	if rawPre, ok := doc["preinstall"]; ok {
		sp.Preinstall = b.buildStringList("preinstall", rawPre, variables)
	}

	rawScenarios, ok := doc["scenarios"]
	if !ok {
		b.fail("scenarios", "is required")
	} else {
		list, ok := asList(rawScenarios)
		if !ok || len(list) == 0 {
			b.fail("scenarios", "must be a non-empty list")
		} else {
			for i, rawScenario := range list {
				sp.Scenarios = append(sp.Scenarios, b.buildScenario(i, rawScenario, variables))
			}
		}
	}

	if len(b.errs) > 0 {
		return nil, b.errs
	}
	return sp, nil
}

func (b *builder) buildSettings(raw any, vars map[string]string) Settings {
	s := DefaultSettings()
	m, ok := asMap(raw)
	if !ok {
		b.fail("settings", "must be a mapping")
		return s
	}
	if v, ok := asInt(m["width"]); ok {
		s.Width = v
	}
	if v, ok := asInt(m["height"]); ok {
		s.Height = v
	}
	if v, ok := asString(m["theme"]); ok {
		s.Theme = interpolate(v, vars)
	}
	if v, ok := asString(m["font"]); ok {
		s.Font = interpolate(v, vars)
	}
	if v, ok := asInt(m["framerate"]); ok {
		s.Framerate = v
	}
	if v, ok := asInt(m["padding"]); ok {
		s.Padding = v
	}
	if s.Width <= 0 {
		b.fail("settings.width", "must be positive")
	}
	if s.Height <= 0 {
		b.fail("settings.height", "must be positive")
	}
	return s
}

func (b *builder) buildPolicy(path string, raw any, vars map[string]string) *PromptPolicy {
	m, ok := asMap(raw)
	if !ok {
		b.fail(path, "must be a mapping")
		return nil
	}
	p := &PromptPolicy{MaxRounds: 1, ApproveKey: "enter", DenyKey: "escape"}
	if v, ok := asString(m["mode"]); ok {
		p.Mode = PromptMode(v)
	}
	if v, ok := asString(m["prompt_regex"]); ok {
		p.PromptRegex = interpolate(v, vars)
	}
	if v, ok := asString(m["allow_regex"]); ok {
		p.AllowRegex = interpolate(v, vars)
	}
	if v, ok := asList(m["allowed_command_prefixes"]); ok {
		for _, item := range v {
			if s, ok := asString(item); ok {
				p.AllowedCommandPrefixes = append(p.AllowedCommandPrefixes, interpolate(s, vars))
			}
		}
	}
	if v, ok := asInt(m["max_rounds"]); ok {
		p.MaxRounds = v
	}
	if v, ok := asString(m["approve_key"]); ok {
		p.ApproveKey = v
	}
	if v, ok := asString(m["deny_key"]); ok {
		p.DenyKey = v
	}

	switch p.Mode {
	case PromptManual, PromptApprove, PromptDeny, PromptAuto, "":
	default:
		b.fail(path+".mode", "must be one of manual, approve, deny, auto, got %q", p.Mode)
	}
	if p.MaxRounds < 1 || p.MaxRounds > 6 {
		b.fail(path+".max_rounds", "must be between 1 and 6, got %d", p.MaxRounds)
	}
	// An approve-mode policy with an empty or unscoped allow_regex is legal
	// to build. At runtime the Policy Engine aborts on the first matching
	// prompt when allow_regex is empty, and approves every prompt when it is
	// a match-all pattern such as ".*". Lint flags both so --strict can
	// reject them before a run starts.
	return p
}

func (b *builder) buildStringList(path string, raw any, vars map[string]string) []string {
	list, ok := asList(raw)
	if !ok {
		b.fail(path, "must be a list of strings")
		return nil
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := asString(item)
		if !ok {
			b.fail(fmt.Sprintf("%s[%d]", path, i), "must be a string")
			continue
		}
		out = append(out, interpolate(s, vars))
	}
	return out
}

func (b *builder) buildScenario(index int, raw any, vars map[string]string) Scenario {
	path := fmt.Sprintf("scenarios[%d]", index)
	sc := Scenario{Mode: LaneAuto}

	m, ok := asMap(raw)
	if !ok {
		b.fail(path, "must be a mapping")
		return sc
	}

	sc.Label, _ = asString(m["label"])
	if strings.TrimSpace(sc.Label) == "" {
		b.fail(path+".label", "is required")
	}

	if v, ok := asString(m["surface"]); ok {
		sc.Surface = v
		if v != "terminal" {
			b.fail(path+".surface", "must be \"terminal\" if present, got %q", v)
		}
	}

	if v, ok := asString(m["execution_mode"]); ok {
		switch Lane(v) {
		case LaneAuto, LaneScripted, LaneInteractive, LaneVisual:
			sc.Mode = Lane(v)
		default:
			b.fail(path+".execution_mode", "must be one of auto, scripted, interactive, visual, got %q", v)
		}
	}

	if v, ok := asString(m["shell"]); ok {
		sc.Shell = interpolate(v, vars)
	}

	if v, ok := m["setup"]; ok {
		sc.Setup = b.buildStringList(path+".setup", v, vars)
	}

	if v, ok := m["agent_prompts"]; ok {
		sc.PromptPolicy = b.buildPolicy(path+".agent_prompts", v, vars)
	}

	rawActions, ok := m["actions"]
	if !ok {
		b.fail(path+".actions", "is required")
		return sc
	}
	list, ok := asList(rawActions)
	if !ok || len(list) == 0 {
		b.fail(path+".actions", "must be a non-empty list")
		return sc
	}
	for i, rawAction := range list {
		action := b.buildAction(fmt.Sprintf("%s.actions[%d]", path, i), rawAction, vars)
		b.validateActionForLane(fmt.Sprintf("%s.actions[%d]", path, i), action, sc.Mode)
		if action.Kind == ActionExpectExitCode && sc.Mode != LaneInteractive && sc.Mode != LaneAuto {
			b.fail(fmt.Sprintf("%s.actions[%d]", path, i), "expect_exit_code is only valid in the interactive lane")
		}
		sc.Actions = append(sc.Actions, action)
	}

	return sc
}

func (b *builder) validateActionForLane(path string, a Action, lane Lane) {
	if lane != LaneInteractive {
		return
	}
	switch a.Kind {
	case ActionInput, ActionKey, ActionHotkey:
		b.fail(path, "interactive primitive unsupported in pty lane")
	}
}

// buildAction parses a single action, which is either a bare string
// (treated as Command, per §6) or a mapping naming exactly one recognized
// action key.
func (b *builder) buildAction(path string, raw any, vars map[string]string) Action {
	if s, ok := asString(raw); ok {
		return Action{Kind: ActionCommand, Text: interpolate(s, vars)}
	}

	m, ok := asMap(raw)
	if !ok {
		b.fail(path, "must be a string or a mapping with a recognized action key")
		return Action{}
	}

	a := Action{}
	if v, ok := asString(m["id"]); ok {
		a.ID = v
	}
	if v, ok := asString(m["timeout"]); ok {
		d, err := ParseDuration(v)
		if err != nil {
			b.fail(path+".timeout", "%v", err)
		} else {
			a.Timeout = &d
		}
	}
	if v, ok := asInt(m["retries"]); ok {
		a.Retries = v
	}
	if a.Retries > 0 && a.Timeout == nil {
		b.fail(path+".retries", "requires an explicit timeout")
	}

	kindsPresent := 0
	set := func(k ActionKind) {
		kindsPresent++
		a.Kind = k
	}

	if v, ok := asString(m["command"]); ok {
		set(ActionCommand)
		a.Text = interpolate(v, vars)
	}
	if v, ok := asString(m["input"]); ok {
		set(ActionInput)
		a.Text = interpolate(v, vars)
	}
	if v, ok := asString(m["key"]); ok {
		set(ActionKey)
		a.Key = v
	}
	if v, ok := asString(m["hotkey"]); ok {
		set(ActionHotkey)
		a.Key = v
	}
	if v, ok := asString(m["sleep"]); ok {
		set(ActionSleep)
		if d, err := ParseDuration(v); err != nil {
			b.fail(path+".sleep", "%v", err)
		} else {
			a.Duration = d
		}
	}
	if v, ok := asString(m["wait_stable"]); ok {
		set(ActionWaitStable)
		if d, err := ParseDuration(v); err != nil {
			b.fail(path+".wait_stable", "%v", err)
		} else {
			a.Duration = d
		}
	}
	if v, ok := asString(m["wait_for"]); ok {
		set(ActionWaitFor)
		a.Target = interpolate(v, vars)
		a.WaitMode = WaitDefault
	}
	if v, ok := asString(m["wait_screen_regex"]); ok {
		set(ActionWaitScreenRegex)
		a.Regex = interpolate(v, vars)
	}
	if v, ok := asString(m["wait_line_regex"]); ok {
		set(ActionWaitLineRegex)
		a.Regex = interpolate(v, vars)
	}
	if v, ok := asString(m["assert_screen_regex"]); ok {
		set(ActionAssertScreenRegex)
		a.Regex = interpolate(v, vars)
	}
	if v, ok := asString(m["assert_not_screen_regex"]); ok {
		set(ActionAssertNotScreenRegex)
		a.Regex = interpolate(v, vars)
	}
	if v, ok := asInt(m["expect_exit_code"]); ok {
		set(ActionExpectExitCode)
		a.ExitCode = v
	}

	if kindsPresent == 0 {
		b.fail(path, "must set exactly one recognized action key")
		return a
	}
	if kindsPresent > 1 {
		b.fail(path, "sets %d action keys, exactly one is required", kindsPresent)
	}

	if v, ok := asString(m["wait_mode"]); ok {
		if a.Kind != ActionWaitFor {
			b.fail(path+".wait_mode", "requires wait_for")
		} else {
			switch WaitMode(v) {
			case WaitDefault, WaitScreen, WaitLine:
				a.WaitMode = WaitMode(v)
			default:
				b.fail(path+".wait_mode", "must be one of default, screen, line, got %q", v)
			}
		}
	}
	if v, ok := asString(m["wait_timeout"]); ok {
		if a.Kind != ActionWaitFor {
			b.fail(path+".wait_timeout", "requires wait_for")
		} else if d, err := ParseDuration(v); err != nil {
			b.fail(path+".wait_timeout", "%v", err)
		} else {
			a.Timeout = &d
		}
	}

	switch a.Kind {
	case ActionWaitScreenRegex, ActionWaitLineRegex, ActionAssertScreenRegex, ActionAssertNotScreenRegex:
		if _, err := regexp.Compile(a.Regex); err != nil {
			b.fail(path, "invalid regex: %v", err)
		}
	}

	return a
}

func interpolate(s string, vars map[string]string) string {
	return interpPattern.ReplaceAllStringFunc(s, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return token
	})
}

func isFilesystemSafeToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// isMatchAllRegex flags the trivially-unscoped patterns the lint pass warns
// about (and --strict rejects) for approve-mode allow_regex, per §3's "not
// equivalent to match-all" invariant.
func isMatchAllRegex(pattern string) bool {
	switch pattern {
	case "", ".*", "^.*$", ".+", "^.+$":
		return true
	}
	return false
}
