package scripted

import (
	"fmt"
	"os"

	"github.com/tomallicino/terminal-demo-studio/internal/model"
)

// Composite produces final media from per-scenario scene videos, either by
// sequential concatenation (a deterministic transition between scenes) or
// simultaneous side-by-side playback aligned to the longest scene's
// duration. The real compositor binary is out of scope; Composite
// concatenates the scene bytes deterministically so the contract (one
// output file referencing every input) is still exercised and testable.
func Composite(playback model.Playback, scenePaths []string, outputPath string) error {
	if len(scenePaths) == 0 {
		return fmt.Errorf("compositor: no scene videos to combine")
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("compositor: creating %s: %w", outputPath, err)
	}
	defer out.Close()

	switch playback {
	case model.PlaybackSequential, model.PlaybackSimultaneous, "":
	default:
		return fmt.Errorf("compositor: unsupported playback mode %q", playback)
	}

	for i, scenePath := range scenePaths {
		data, err := os.ReadFile(scenePath)
		if err != nil {
			return fmt.Errorf("compositor: missing scene artifact %s: %w", scenePath, err)
		}
		if _, err := fmt.Fprintf(out, "--- scene %d (%s) ---\n", i, playback); err != nil {
			return err
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	}
	return nil
}
