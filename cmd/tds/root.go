package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"os"
)

const (
	groupExec = "exec"
	groupDiag = "diag"
)

var (
	flagMode          string
	flagLocal         bool
	flagDocker        bool
	flagOutput        []string
	flagOutputDir     string
	flagPlayback      string
	flagAgentPrompts  string
	flagRedact        string
	flagVerbose       bool
	flagJSON          bool
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

func stylize(s string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return s
	}
	return headerStyle.Render(s)
}

var rootCmd = &cobra.Command{
	Use:   "tds",
	Short: "Record terminal demo screenplays",
	Long: `tds drives a screenplay through one of three capture lanes — scripted,
interactive, or visual — producing recorded media and a structured run
artifact.

EXECUTION:
  tds run <screenplay.yaml>       Execute a screenplay and record media
  tds render <screenplay.yaml>    Synonym of run

VALIDATION:
  tds validate <screenplay.yaml>  Schema pass only
  tds lint <screenplay.yaml>      Policy-safety pass on a validated screenplay

DIAGNOSTICS:
  tds doctor                      Probe tool availability for each lane
  tds debug <run_dir>             Summarize a completed run's artifacts

Examples:
  tds run demo.yaml --mode auto --output gif
  tds validate demo.yaml --explain
  tds doctor --mode visual`,
	RunE:          requireSubcommand,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupExec, Title: "Execution:"},
		&cobra.Group{ID: groupDiag, Title: "Diagnostics:"},
	)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagMode, "mode", "auto", "execution lane: auto, scripted, interactive, visual")
	pf.BoolVar(&flagLocal, "local", false, "force local execution")
	pf.BoolVar(&flagDocker, "docker", false, "force containerized execution")
	pf.StringSliceVar(&flagOutput, "output", []string{"gif"}, "output media formats (repeatable): gif, mp4; not read by run, each lane writes its own fixed media")
	pf.StringVar(&flagOutputDir, "output-dir", "", "directory to write media into; not read by run, media is written under the run directory")
	pf.StringVar(&flagPlayback, "playback", "", "override playback mode: sequential, simultaneous")
	pf.StringVar(&flagAgentPrompts, "agent-prompts", "auto", "prompt policy mode: auto, manual, approve, deny")
	pf.StringVar(&flagRedact, "redact", "auto", "redaction mode: auto, off, input_line")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&flagJSON, "json", false, "emit JSON where supported")

	rootCmd.AddCommand(runCmd, renderCmd, validateCmd, lintCmd, doctorCmd, debugCmd)
}

func requireSubcommand(cmd *cobra.Command, _ []string) error {
	return cmd.Help()
}
