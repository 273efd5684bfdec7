package scripted

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomallicino/terminal-demo-studio/internal/artifact"
	"github.com/tomallicino/terminal-demo-studio/internal/model"
)

func demoScenario() model.Scenario {
	return model.Scenario{
		Label: "scene one",
		Mode:  model.LaneScripted,
		Actions: []model.Action{
			{Kind: model.ActionCommand, Text: "echo hi"},
			{Kind: model.ActionAssertScreenRegex, Regex: "^hi$"},
		},
	}
}

func TestCompileEmitsOneDirectivePerAction(t *testing.T) {
	directive := Compile(demoScenario())
	assert.Contains(t, directive, `Type "echo hi"`)
	assert.Contains(t, directive, "Enter")
	assert.Contains(t, directive, "# predicate: assert_screen_regex")
}

func TestResolvePredicatesPassesWhenMatched(t *testing.T) {
	err := ResolvePredicates(demoScenario(), "hi")
	assert.NoError(t, err)
}

func TestResolvePredicatesFailsWhenUnmatched(t *testing.T) {
	err := ResolvePredicates(demoScenario(), "nope")
	assert.Error(t, err)
}

func TestCompositeConcatenatesSceneFiles(t *testing.T) {
	dir := t.TempDir()
	sceneA := filepath.Join(dir, "a.mp4")
	sceneB := filepath.Join(dir, "b.mp4")
	require.NoError(t, os.WriteFile(sceneA, []byte("AAA"), 0o644))
	require.NoError(t, os.WriteFile(sceneB, []byte("BBB"), 0o644))

	out := filepath.Join(dir, "final.mp4")
	require.NoError(t, Composite(model.PlaybackSequential, []string{sceneA, sceneB}, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AAA")
	assert.Contains(t, string(data), "BBB")
}

func TestCompositeFailsOnMissingScene(t *testing.T) {
	dir := t.TempDir()
	err := Composite(model.PlaybackSequential, []string{filepath.Join(dir, "missing.mp4")}, filepath.Join(dir, "final.mp4"))
	assert.Error(t, err)
}

func TestRunRecordsAndResolvesPredicates(t *testing.T) {
	root := t.TempDir()
	run, err := artifact.Create(root)
	require.NoError(t, err)
	defer run.Close()

	result, scenePath, err := Run(run, 0, demoScenario(), FakeRecorder{TextCapture: "hi"})
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.FileExists(t, scenePath)
}

func TestRunFailsWhenPredicateUnmet(t *testing.T) {
	root := t.TempDir()
	run, err := artifact.Create(root)
	require.NoError(t, err)
	defer run.Close()

	result, _, err := Run(run, 0, demoScenario(), FakeRecorder{TextCapture: "nope"})
	assert.Error(t, err)
	assert.False(t, result.Passed)
	_, hasFailed := result.FailedStep()
	assert.True(t, hasFailed)
}
