package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalDoc() map[string]any {
	return map[string]any{
		"title":  "demo",
		"output": "demo-output",
		"scenarios": []any{
			map[string]any{
				"label": "scene one",
				"actions": []any{
					"echo hello",
					map[string]any{"wait_for": "hello", "wait_mode": "screen", "wait_timeout": "5s"},
				},
			},
		},
	}
}

func TestBuildAcceptsMinimalScreenplay(t *testing.T) {
	sp, errs := Build(minimalDoc())
	require.Empty(t, errs)
	require.NotNil(t, sp)
	assert.Equal(t, "demo", sp.Title)
	require.Len(t, sp.Scenarios, 1)
	require.Len(t, sp.Scenarios[0].Actions, 2)
	assert.Equal(t, ActionCommand, sp.Scenarios[0].Actions[0].Kind)
	assert.Equal(t, "echo hello", sp.Scenarios[0].Actions[0].Text)
	assert.Equal(t, ActionWaitFor, sp.Scenarios[0].Actions[1].Kind)
	assert.Equal(t, WaitScreen, sp.Scenarios[0].Actions[1].WaitMode)
}

func TestBuildRejectsMissingTitle(t *testing.T) {
	doc := minimalDoc()
	delete(doc, "title")
	_, errs := Build(doc)
	require.NotEmpty(t, errs)
	assertHasPath(t, errs, "title")
}

func TestBuildRejectsEmptyScenarios(t *testing.T) {
	doc := minimalDoc()
	doc["scenarios"] = []any{}
	_, errs := Build(doc)
	assertHasPath(t, errs, "scenarios")
}

func TestBuildRejectsRetriesWithoutTimeout(t *testing.T) {
	doc := minimalDoc()
	doc["scenarios"].([]any)[0].(map[string]any)["actions"] = []any{
		map[string]any{"command": "echo hi", "retries": 2},
	}
	_, errs := Build(doc)
	assertHasPath(t, errs, "scenarios[0].actions[0].retries")
}

func TestBuildRejectsWaitModeWithoutWaitFor(t *testing.T) {
	doc := minimalDoc()
	doc["scenarios"].([]any)[0].(map[string]any)["actions"] = []any{
		map[string]any{"command": "echo hi", "wait_mode": "screen"},
	}
	_, errs := Build(doc)
	assertHasPath(t, errs, "scenarios[0].actions[0].wait_mode")
}

func TestBuildRejectsMultipleActionKeys(t *testing.T) {
	doc := minimalDoc()
	doc["scenarios"].([]any)[0].(map[string]any)["actions"] = []any{
		map[string]any{"command": "echo hi", "input": "oops"},
	}
	_, errs := Build(doc)
	assertHasPath(t, errs, "scenarios[0].actions[0]")
}

func TestBuildRejectsInteractivePrimitivesInInteractiveLane(t *testing.T) {
	doc := minimalDoc()
	sc := doc["scenarios"].([]any)[0].(map[string]any)
	sc["execution_mode"] = "interactive"
	sc["actions"] = []any{map[string]any{"key": "enter"}}
	_, errs := Build(doc)
	assertHasPath(t, errs, "scenarios[0].actions[0]")
}

func TestBuildRejectsMalformedDuration(t *testing.T) {
	doc := minimalDoc()
	doc["scenarios"].([]any)[0].(map[string]any)["actions"] = []any{
		map[string]any{"sleep": "5 seconds"},
	}
	_, errs := Build(doc)
	assertHasPath(t, errs, "scenarios[0].actions[0].sleep")
}

func TestBuildRejectsOutputSlugWithSlash(t *testing.T) {
	doc := minimalDoc()
	doc["output"] = "demo/output"
	_, errs := Build(doc)
	assertHasPath(t, errs, "output")
}

func TestBuildInterpolatesVariables(t *testing.T) {
	doc := minimalDoc()
	doc["variables"] = map[string]any{"greeting": "hi"}
	doc["scenarios"].([]any)[0].(map[string]any)["actions"] = []any{
		map[string]any{"command": "echo {greeting}"},
	}
	sp, errs := Build(doc)
	require.Empty(t, errs)
	assert.Equal(t, "echo hi", sp.Scenarios[0].Actions[0].Text)
}

func TestBuildAcceptsApproveWithoutAllowRegex(t *testing.T) {
	// Legal to build: an unscoped approve policy aborts at runtime on its
	// first matching prompt rather than failing validation. Lint (under
	// --strict) is where this becomes a hard error.
	doc := minimalDoc()
	doc["agent_prompts"] = map[string]any{"mode": "approve", "prompt_regex": "Proceed\\?"}
	sp, errs := Build(doc)
	require.Empty(t, errs)

	findings := Lint(sp, false)
	require.Len(t, findings, 1)
	assert.Equal(t, LintWarning, findings[0].Severity)
	assert.Equal(t, "agent_prompts.allow_regex", findings[0].Path)

	strictFindings := Lint(sp, true)
	require.Len(t, strictFindings, 1)
	assert.Equal(t, LintError, strictFindings[0].Severity)
}

func TestBuildAcceptsMatchAllAllowRegex(t *testing.T) {
	doc := minimalDoc()
	doc["agent_prompts"] = map[string]any{
		"mode": "approve", "prompt_regex": "Proceed\\?", "allow_regex": ".*",
	}
	sp, errs := Build(doc)
	require.Empty(t, errs)

	findings := Lint(sp, false)
	require.Len(t, findings, 1)
	assert.Equal(t, LintWarning, findings[0].Severity)
	assert.Equal(t, "agent_prompts.allow_regex", findings[0].Path)
}

func TestLintWarnsOnDefaultWaitMode(t *testing.T) {
	doc := minimalDoc()
	doc["scenarios"].([]any)[0].(map[string]any)["actions"] = []any{
		map[string]any{"wait_for": "hello"},
	}
	sp, errs := Build(doc)
	require.Empty(t, errs)

	findings := Lint(sp, false)
	require.Len(t, findings, 1)
	assert.Equal(t, LintWarning, findings[0].Severity)

	strictFindings := Lint(sp, true)
	assert.Equal(t, LintError, strictFindings[0].Severity)
	assert.True(t, HasErrors(strictFindings))
}

func TestParseDurationGrammar(t *testing.T) {
	d, err := ParseDuration("500ms")
	require.NoError(t, err)
	assert.Equal(t, "500ms", d.String())

	_, err = ParseDuration("5 seconds")
	assert.Error(t, err)

	_, err = ParseDuration("-5s")
	assert.Error(t, err)
}

func assertHasPath(t *testing.T, errs []error, prefix string) {
	t.Helper()
	for _, e := range errs {
		if fe, ok := e.(fieldError); ok {
			if len(fe.path) >= len(prefix) && fe.path[:len(prefix)] == prefix {
				return
			}
		}
	}
	t.Fatalf("expected an error with path prefix %q, got %v", prefix, errs)
}
