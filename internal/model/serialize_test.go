package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// roundTripDoc covers every action kind and policy field with values that
// survive a time.Duration.String() round trip (integer ms/s literals only,
// per ParseDuration's grammar).
func roundTripDoc() map[string]any {
	return map[string]any{
		"title":    "round trip demo",
		"output":   "round-trip-output",
		"playback": "simultaneous",
		"variables": map[string]any{
			"greeting": "hello",
		},
		"settings": map[string]any{
			"width": 100, "height": 30, "theme": "dracula", "font": "Menlo", "framerate": 24, "padding": 2,
		},
		"agent_prompts": map[string]any{
			"mode": "approve", "prompt_regex": `Proceed\?`, "allow_regex": `Proceed\? \[y/N\]`,
			"allowed_command_prefixes": []any{"npm install"}, "max_rounds": 4,
			"approve_key": "enter", "deny_key": "escape",
		},
		"preinstall": []any{"apt-get update"},
		"scenarios": []any{
			map[string]any{
				"label":          "scene one",
				"execution_mode": "visual",
				"shell":          "/bin/bash",
				"setup":          []any{"export FOO=bar"},
				"actions": []any{
					map[string]any{"command": "echo {greeting}"},
					map[string]any{"input": "typed text"},
					map[string]any{"key": "enter"},
					map[string]any{"hotkey": "ctrl+c"},
					map[string]any{"sleep": "500ms"},
					map[string]any{"wait_stable": "1s"},
					map[string]any{"wait_for": "hello", "wait_mode": "screen", "wait_timeout": "5s"},
					map[string]any{"wait_screen_regex": "hel+o"},
					map[string]any{"wait_line_regex": "hel+o$"},
					map[string]any{"assert_screen_regex": "hello"},
					map[string]any{"assert_not_screen_regex": "goodbye"},
				},
			},
		},
	}
}

func TestScreenplayRoundTripsThroughDocument(t *testing.T) {
	sp1, errs := Build(roundTripDoc())
	require.Empty(t, errs)

	doc2 := ToDocument(sp1)
	sp2, errs := Build(doc2)
	require.Empty(t, errs)

	ignoreTmpDir := cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == `["tmp_dir"]`
	}, cmp.Ignore())

	if diff := cmp.Diff(sp1, sp2, ignoreTmpDir); diff != "" {
		t.Fatalf("rebuilding from ToDocument(sp1) did not reproduce an equivalent Screenplay (-sp1 +sp2):\n%s", diff)
	}
}

func TestScreenplayRoundTripInterpolationIsIdempotent(t *testing.T) {
	doc := roundTripDoc()
	sp1, errs := Build(doc)
	require.Empty(t, errs)

	firstAction := sp1.Scenarios[0].Actions[0]
	require.Equal(t, "echo hello", firstAction.Text)

	sp2, errs := Build(ToDocument(sp1))
	require.Empty(t, errs)

	assert := firstAction.Text == sp2.Scenarios[0].Actions[0].Text
	if !assert {
		t.Fatalf("re-interpolating an already-interpolated action changed its text: %q -> %q",
			firstAction.Text, sp2.Scenarios[0].Actions[0].Text)
	}
}
