package scripted

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tomallicino/terminal-demo-studio/internal/model"
)

// Recorder renders a directive program to a scene video and returns the
// recorder's text capture, used to resolve the regex predicates Compile
// left as marker comments. The real headless recorder binary is out of
// scope; callers substitute FakeRecorder in tests and in the local
// fallback path.
type Recorder interface {
	Record(directivePath, outputPath string) (textCapture string, err error)
}

// FakeRecorder writes a minimal placeholder video file and echoes back a
// caller-supplied text capture, standing in for the real recorder binary.
type FakeRecorder struct {
	// TextCapture is returned verbatim from Record, letting tests drive
	// predicate resolution without a real terminal session.
	TextCapture string
}

func (f FakeRecorder) Record(directivePath, outputPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(outputPath, []byte("fake-scene-video"), 0o644); err != nil {
		return "", err
	}
	return f.TextCapture, nil
}

// ResolvePredicates checks the marker directives Compile emitted for
// regex-based waits/assertions against textCapture, matching
// SPEC_FULL.md's "regex waits/assertions are encoded as post-recording
// predicates" contract.
func ResolvePredicates(sc model.Scenario, textCapture string) error {
	for i, a := range sc.Actions {
		switch a.Kind {
		case model.ActionWaitScreenRegex, model.ActionWaitLineRegex, model.ActionAssertScreenRegex:
			re, err := regexp.Compile("(?m)" + a.Regex)
			if err != nil {
				return fmt.Errorf("action %d: invalid regex: %w", i, err)
			}
			if !re.MatchString(textCapture) {
				return fmt.Errorf("action %d: predicate %q did not match recorded text", i, a.Regex)
			}
		case model.ActionAssertNotScreenRegex:
			re, err := regexp.Compile("(?m)" + a.Regex)
			if err != nil {
				return fmt.Errorf("action %d: invalid regex: %w", i, err)
			}
			if re.MatchString(textCapture) {
				return fmt.Errorf("action %d: predicate %q unexpectedly matched recorded text", i, a.Regex)
			}
		}
	}
	return nil
}
