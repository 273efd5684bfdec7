package model

import "fmt"

// LintSeverity categorizes a lint finding. Strict mode promotes Warning to
// Error, per SPEC_FULL.md §4.1.
type LintSeverity string

const (
	LintError   LintSeverity = "error"
	LintWarning LintSeverity = "warning"
)

// LintFinding is one issue discovered by Lint: legal per Build, but unsafe.
type LintFinding struct {
	Path     string
	Severity LintSeverity
	Reason   string
}

func (f LintFinding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Path, f.Reason)
}

// Lint runs the policy-safety pass over an already-validated Screenplay.
// strict promotes every Warning finding to Error.
func Lint(sp *Screenplay, strict bool) []LintFinding {
	var findings []LintFinding

	lintPolicy := func(path string, p *PromptPolicy) {
		if p == nil {
			return
		}
		if p.Mode == PromptApprove && isMatchAllRegex(p.AllowRegex) {
			findings = append(findings, LintFinding{
				Path: path + ".allow_regex", Severity: LintWarning,
				Reason: "approve mode with an unscoped allow_regex defeats the policy gate: an empty one aborts at runtime on the first matching prompt, a match-all one approves every prompt",
			})
		}
		if (p.Mode == PromptApprove || p.Mode == PromptDeny) && p.PromptRegex == "" {
			findings = append(findings, LintFinding{
				Path: path + ".prompt_regex", Severity: LintError,
				Reason: "approve/deny mode requires a prompt_regex to detect the prompt",
			})
		}
		if p.MaxRounds <= 0 {
			findings = append(findings, LintFinding{
				Path: path + ".max_rounds", Severity: LintError,
				Reason: "max_rounds must be bounded",
			})
		}
	}

	lintPolicy("agent_prompts", sp.PromptPolicy)
	for i, sc := range sp.Scenarios {
		path := fmt.Sprintf("scenarios[%d]", i)
		lintPolicy(path+".agent_prompts", sc.PromptPolicy)

		for j, a := range sc.Actions {
			if a.Kind == ActionWaitFor && a.WaitMode == WaitDefault {
				findings = append(findings, LintFinding{
					Path:     fmt.Sprintf("%s.actions[%d].wait_mode", path, j),
					Severity: LintWarning,
					Reason:   "wait_for without an explicit wait_mode defaults to the stream tail; screen is the more robust choice",
				})
			}
		}
	}

	if strict {
		for i := range findings {
			findings[i].Severity = LintError
		}
	}
	return findings
}

// HasErrors reports whether any finding has Error severity.
func HasErrors(findings []LintFinding) bool {
	for _, f := range findings {
		if f.Severity == LintError {
			return true
		}
	}
	return false
}
