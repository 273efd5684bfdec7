// Command tds records terminal demo screenplays across scripted,
// interactive, and visual capture lanes.
package main

import (
	"fmt"
	"os"

	"github.com/tomallicino/terminal-demo-studio/internal/fault"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if f, ok := err.(*fault.Fault); ok {
			os.Exit(fault.ExitCode(f))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
