// Package policy implements the Policy Engine: a pure decision function
// mediating autonomous approval of interactive prompts during capture.
package policy

import (
	"regexp"
	"strings"

	"github.com/tomallicino/terminal-demo-studio/internal/model"
)

// Outcome is the Policy Engine's verdict for one sampling tick.
type Outcome string

const (
	Approve Outcome = "approve"
	Deny    Outcome = "deny"
	Skip    Outcome = "skip"
	Abort   Outcome = "abort"
)

// Decision is the result of one Decide call.
type Decision struct {
	Outcome Outcome
	Key     string // key event to send, for Approve/Deny
	Reason  string // present only when Outcome == Abort
}

func skip() Decision  { return Decision{Outcome: Skip} }
func abort(reason string) Decision {
	return Decision{Outcome: Abort, Reason: reason}
}

// Decide evaluates one policy tick. It owns no timers and no I/O: the
// calling lane runtime invokes it once per sampling tick and acts on the
// returned Decision. snapshot is the current screen text, round is the
// count of prior approve/deny decisions already taken for the active
// prompt match, and lastAction is the most recently dispatched action
// (used to check allowed_command_prefixes).
func Decide(snapshot string, p model.PromptPolicy, round int, lastAction *model.Action) Decision {
	if p.PromptRegex == "" {
		return skip()
	}
	promptRe, err := regexp.Compile(p.PromptRegex)
	if err != nil {
		return abort("prompt_regex failed to compile: " + err.Error())
	}
	if !promptRe.MatchString(snapshot) {
		return skip()
	}

	if round >= p.MaxRounds {
		return abort("prompt loop exceeded max_rounds")
	}

	switch p.Mode {
	case model.PromptManual, "":
		return abort("manual mode cannot auto-confirm prompt")
	case model.PromptDeny:
		return Decision{Outcome: Deny, Key: p.DenyKey}
	case model.PromptApprove:
		// An empty allow_regex never grants approval: it means no scope was
		// configured, not that every prompt is in scope.
		if p.AllowRegex == "" {
			return abort("approve policy did not match allow_regex")
		}
		allowRe, err := regexp.Compile(p.AllowRegex)
		if err != nil {
			return abort("allow_regex failed to compile: " + err.Error())
		}
		if !allowRe.MatchString(snapshot) {
			return abort("approve policy did not match allow_regex")
		}
		if len(p.AllowedCommandPrefixes) > 0 {
			if lastAction == nil || lastAction.Kind != model.ActionCommand || !hasAnyPrefix(lastAction.Text, p.AllowedCommandPrefixes) {
				return abort("approve policy: last command does not match allowed_command_prefixes")
			}
		}
		return Decision{Outcome: Approve, Key: p.ApproveKey}
	case model.PromptAuto:
		return abort("auto mode must be resolved against the global policy before reaching the policy engine")
	default:
		return abort("unrecognized prompt policy mode: " + string(p.Mode))
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
