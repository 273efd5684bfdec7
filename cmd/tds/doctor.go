package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomallicino/terminal-demo-studio/internal/dispatch"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Short:   "Probe tool availability for each capture lane",
	GroupID: groupDiag,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		checks := []struct {
			lane string
			tool string
			hint string
		}{
			{"scripted", "vhs", "install vhs (https://github.com/charmbracelet/vhs) or pass --docker"},
			{"scripted", "docker", "install a container runtime, or install vhs locally"},
			{"interactive", "sh", "no POSIX shell found on PATH"},
			{"visual", "asciinema", "install asciinema or pass --docker"},
		}

		allOK := true
		for _, c := range checks {
			if flagMode != "" && flagMode != "auto" && c.lane != flagMode {
				continue
			}
			ok := dispatch.DefaultToolProbe(c.tool)
			status := stylize("ok")
			if !ok {
				status = "missing"
				allOK = false
			}
			fmt.Printf("[%s] %-10s %-10s %s\n", status, c.lane, c.tool, hintIfMissing(ok, c.hint))
		}

		if !allOK {
			fmt.Println("\nsome tools are missing; affected lanes will fall back to --docker where supported")
		}
		return nil
	},
}

func hintIfMissing(ok bool, hint string) string {
	if ok {
		return ""
	}
	return hint
}
