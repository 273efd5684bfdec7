package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomallicino/terminal-demo-studio/internal/model"
)

func basePolicy() model.PromptPolicy {
	return model.PromptPolicy{
		Mode:        model.PromptApprove,
		PromptRegex: `Proceed\?`,
		AllowRegex:  `Proceed\? \[y/N\]`,
		MaxRounds:   3,
		ApproveKey:  "enter",
		DenyKey:     "escape",
	}
}

func TestDecideSkipsWhenNoPromptRegex(t *testing.T) {
	d := Decide("anything", model.PromptPolicy{}, 0, nil)
	assert.Equal(t, Skip, d.Outcome)
}

func TestDecideSkipsWhenPromptRegexDoesNotMatch(t *testing.T) {
	d := Decide("nothing interesting here", basePolicy(), 0, nil)
	assert.Equal(t, Skip, d.Outcome)
}

func TestDecideAbortsAtMaxRounds(t *testing.T) {
	d := Decide("Proceed? [y/N]", basePolicy(), 3, nil)
	assert.Equal(t, Abort, d.Outcome)
	assert.Contains(t, d.Reason, "max_rounds")
}

func TestDecideAbortsOnManualMode(t *testing.T) {
	p := basePolicy()
	p.Mode = model.PromptManual
	d := Decide("Proceed? [y/N]", p, 0, nil)
	assert.Equal(t, Abort, d.Outcome)
	assert.Contains(t, d.Reason, "manual")
}

func TestDecideDenies(t *testing.T) {
	p := basePolicy()
	p.Mode = model.PromptDeny
	d := Decide("Proceed? [y/N]", p, 0, nil)
	assert.Equal(t, Deny, d.Outcome)
	assert.Equal(t, "escape", d.Key)
}

func TestDecideApprovesWhenAllowRegexMatches(t *testing.T) {
	d := Decide("Proceed? [y/N]", basePolicy(), 0, nil)
	assert.Equal(t, Approve, d.Outcome)
	assert.Equal(t, "enter", d.Key)
}

func TestDecideAbortsWhenAllowRegexDoesNotMatch(t *testing.T) {
	p := basePolicy()
	p.AllowRegex = `Proceed\? \[Y/n\]`
	d := Decide("Proceed? [y/N]", p, 0, nil)
	assert.Equal(t, Abort, d.Outcome)
	assert.Contains(t, d.Reason, "allow_regex")
}

func TestDecideAbortsWhenAllowRegexAbsent(t *testing.T) {
	p := basePolicy()
	p.AllowRegex = ""
	d := Decide("Proceed? [y/N]", p, 0, nil)
	assert.Equal(t, Abort, d.Outcome)
	assert.Contains(t, d.Reason, "allow_regex")
}

func TestDecideAbortsWhenCommandPrefixNotAllowed(t *testing.T) {
	p := basePolicy()
	p.AllowedCommandPrefixes = []string{"npm install"}
	last := &model.Action{Kind: model.ActionCommand, Text: "rm -rf /"}
	d := Decide("Proceed? [y/N]", p, 0, last)
	assert.Equal(t, Abort, d.Outcome)
	assert.Contains(t, d.Reason, "allowed_command_prefixes")
}

func TestDecideApprovesWhenCommandPrefixAllowed(t *testing.T) {
	p := basePolicy()
	p.AllowedCommandPrefixes = []string{"npm install"}
	last := &model.Action{Kind: model.ActionCommand, Text: "npm install left-pad"}
	d := Decide("Proceed? [y/N]", p, 0, last)
	assert.Equal(t, Approve, d.Outcome)
}
