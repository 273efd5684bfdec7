package scripted

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tomallicino/terminal-demo-studio/internal/artifact"
	"github.com/tomallicino/terminal-demo-studio/internal/lane"
	"github.com/tomallicino/terminal-demo-studio/internal/model"
)

// Run compiles, records, and resolves predicates for one scenario,
// writing its tape and scene video under run. It does not run the
// compositor; Composite runs once after every scenario in the screenplay
// has recorded successfully, per the playback-mode contract.
func Run(run *artifact.Run, index int, sc model.Scenario, rec Recorder) (lane.ScenarioResult, string, error) {
	result := lane.ScenarioResult{Label: sc.Label, Lane: model.LaneScripted, Started: time.Now()}

	tapesDir, err := run.TapesDir()
	if err != nil {
		return result, "", err
	}
	scenesDir, err := run.ScenesDir()
	if err != nil {
		return result, "", err
	}

	tapePath := filepath.Join(tapesDir, fmt.Sprintf("scene_%d.tape", index))
	scenePath := filepath.Join(scenesDir, fmt.Sprintf("scene_%d.mp4", index))

	directive := Compile(sc)
	if err := os.WriteFile(tapePath, []byte(directive), 0o644); err != nil {
		return result, "", err
	}

	for i, a := range sc.Actions {
		result.Steps = append(result.Steps, lane.StepResult{Action: a, State: lane.Dispatched, Started: time.Now()})
		_ = i
	}

	textCapture, err := rec.Record(tapePath, scenePath)
	if err != nil {
		result.Ended = time.Now()
		result.Reason = fmt.Sprintf("recorder failed: %v", err)
		markAllFailed(&result)
		return result, "", err
	}

	if err := ResolvePredicates(sc, textCapture); err != nil {
		result.Ended = time.Now()
		result.Reason = err.Error()
		markAllFailed(&result)
		return result, scenePath, err
	}

	for i := range result.Steps {
		result.Steps[i].State = lane.Passed
		result.Steps[i].Ended = time.Now()
	}
	result.Passed = true
	result.Ended = time.Now()
	return result, scenePath, nil
}

func markAllFailed(r *lane.ScenarioResult) {
	for i := range r.Steps {
		if !r.Steps[i].State.Terminal() {
			r.Steps[i].State = lane.Failed
			r.Steps[i].Reason = r.Reason
			r.Steps[i].Ended = time.Now()
		}
	}
}
