package model

// ToDocument reconstructs the untyped document form internal/document
// produces, from an already-built Screenplay. It is Build's inverse for
// the round-trip law in SPEC_FULL.md §8: interpolation has already run by
// the time a Screenplay exists, so every string ToDocument emits is a
// literal value, and rebuilding from it re-interpolates against an
// identical (now no-op) variable set.
//
// tmp_dir is Build's own per-call injection, not user input, so it is
// dropped here: a rebuild allocates its own.
func ToDocument(sp *Screenplay) map[string]any {
	doc := map[string]any{
		"title":    sp.Title,
		"output":   sp.Output,
		"playback": string(sp.Playback),
		"settings": settingsToDoc(sp.Settings),
	}

	if len(sp.Variables) > 0 {
		vars := map[string]any{}
		for k, v := range sp.Variables {
			if k == "tmp_dir" {
				continue
			}
			vars[k] = v
		}
		if len(vars) > 0 {
			doc["variables"] = vars
		}
	}

	if sp.PromptPolicy != nil {
		doc["agent_prompts"] = policyToDoc(sp.PromptPolicy)
	}
	if len(sp.Preinstall) > 0 {
		doc["preinstall"] = stringsToAny(sp.Preinstall)
	}

	scenarios := make([]any, len(sp.Scenarios))
	for i, sc := range sp.Scenarios {
		scenarios[i] = scenarioToDoc(sc)
	}
	doc["scenarios"] = scenarios

	return doc
}

func settingsToDoc(s Settings) map[string]any {
	return map[string]any{
		"width":     s.Width,
		"height":    s.Height,
		"theme":     s.Theme,
		"font":      s.Font,
		"framerate": s.Framerate,
		"padding":   s.Padding,
	}
}

func policyToDoc(p *PromptPolicy) map[string]any {
	m := map[string]any{
		"mode":         string(p.Mode),
		"prompt_regex": p.PromptRegex,
		"allow_regex":  p.AllowRegex,
		"max_rounds":   p.MaxRounds,
		"approve_key":  p.ApproveKey,
		"deny_key":     p.DenyKey,
	}
	if len(p.AllowedCommandPrefixes) > 0 {
		m["allowed_command_prefixes"] = stringsToAny(p.AllowedCommandPrefixes)
	}
	return m
}

func scenarioToDoc(sc Scenario) map[string]any {
	m := map[string]any{
		"label": sc.Label,
	}
	if sc.Surface != "" {
		m["surface"] = sc.Surface
	}
	if sc.Mode != LaneAuto {
		m["execution_mode"] = string(sc.Mode)
	}
	if sc.Shell != "" {
		m["shell"] = sc.Shell
	}
	if len(sc.Setup) > 0 {
		m["setup"] = stringsToAny(sc.Setup)
	}
	if sc.PromptPolicy != nil {
		m["agent_prompts"] = policyToDoc(sc.PromptPolicy)
	}

	actions := make([]any, len(sc.Actions))
	for i, a := range sc.Actions {
		actions[i] = actionToDoc(a)
	}
	m["actions"] = actions
	return m
}

func actionToDoc(a Action) map[string]any {
	m := map[string]any{}
	if a.ID != "" {
		m["id"] = a.ID
	}
	if a.Retries > 0 {
		m["retries"] = a.Retries
	}

	switch a.Kind {
	case ActionCommand:
		m["command"] = a.Text
	case ActionInput:
		m["input"] = a.Text
	case ActionKey:
		m["key"] = a.Key
	case ActionHotkey:
		m["hotkey"] = a.Key
	case ActionSleep:
		m["sleep"] = a.Duration.String()
	case ActionWaitStable:
		m["wait_stable"] = a.Duration.String()
	case ActionWaitFor:
		m["wait_for"] = a.Target
		m["wait_mode"] = string(a.WaitMode)
		if a.Timeout != nil {
			m["wait_timeout"] = a.Timeout.String()
		}
	case ActionWaitScreenRegex:
		m["wait_screen_regex"] = a.Regex
	case ActionWaitLineRegex:
		m["wait_line_regex"] = a.Regex
	case ActionAssertScreenRegex:
		m["assert_screen_regex"] = a.Regex
	case ActionAssertNotScreenRegex:
		m["assert_not_screen_regex"] = a.Regex
	case ActionExpectExitCode:
		m["expect_exit_code"] = a.ExitCode
	}

	if a.Kind != ActionWaitFor && a.Timeout != nil {
		m["timeout"] = a.Timeout.String()
	}

	return m
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
