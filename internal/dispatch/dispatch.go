// Package dispatch resolves the effective lane and execution location for
// a screenplay run, and exposes the fallback policy between local and
// containerized execution.
package dispatch

import (
	"fmt"
	"os/exec"

	"github.com/tomallicino/terminal-demo-studio/internal/model"
)

// Location selects where a lane's tooling runs.
type Location string

const (
	LocationAuto   Location = "auto"
	LocationLocal  Location = "local"
	LocationDocker Location = "docker"
)

// ResolveLane picks the effective lane for a screenplay. An explicit
// requested lane wins, but must be compatible with every scenario's
// declared mode. requested == LaneAuto defers to scenario declarations:
// any visual scenario makes the whole run visual; else any interactive
// scenario makes it interactive; else scripted.
func ResolveLane(requested model.Lane, sp *model.Screenplay) (model.Lane, error) {
	if requested != model.LaneAuto {
		for i, sc := range sp.Scenarios {
			if sc.Mode != model.LaneAuto && sc.Mode != requested {
				return "", fmt.Errorf("scenarios[%d]: declares %q, incompatible with requested lane %q", i, sc.Mode, requested)
			}
		}
		return requested, nil
	}

	hasVisual, hasInteractive := false, false
	for _, sc := range sp.Scenarios {
		switch sc.Mode {
		case model.LaneVisual:
			hasVisual = true
		case model.LaneInteractive:
			hasInteractive = true
		}
	}
	switch {
	case hasVisual:
		return model.LaneVisual, nil
	case hasInteractive:
		return model.LaneInteractive, nil
	default:
		return model.LaneScripted, nil
	}
}

// ToolProbe checks whether a named executable is on PATH. It is the sole
// fallback trigger: fallback is only attempted on tool-availability
// failures, never on execution failures of a successfully started run.
type ToolProbe func(name string) bool

// DefaultToolProbe resolves name via exec.LookPath.
func DefaultToolProbe(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// ResolveLocation picks the execution location for lane given the
// caller's requested location and the local tool the lane needs.
// Interactive always stays local. scripted/visual try local first and
// fall back to docker only when localTool is unavailable; an explicit
// --local/--docker request fails fast instead of falling back.
func ResolveLocation(requested Location, lane model.Lane, localTool string, probe ToolProbe) (Location, error) {
	if probe == nil {
		probe = DefaultToolProbe
	}

	if lane == model.LaneInteractive {
		if requested == LocationDocker {
			return "", fmt.Errorf("interactive lane does not support --docker")
		}
		return LocationLocal, nil
	}

	switch requested {
	case LocationLocal:
		if !probe(localTool) {
			return "", fmt.Errorf("--local requested but %q is not available", localTool)
		}
		return LocationLocal, nil
	case LocationDocker:
		if !probe("docker") {
			return "", fmt.Errorf("--docker requested but the container runtime is not available")
		}
		return LocationDocker, nil
	default: // auto
		if probe(localTool) {
			return LocationLocal, nil
		}
		if probe("docker") {
			return LocationDocker, nil
		}
		return "", fmt.Errorf("neither %q nor a container runtime is available", localTool)
	}
}
