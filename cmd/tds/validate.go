package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomallicino/terminal-demo-studio/internal/document"
	"github.com/tomallicino/terminal-demo-studio/internal/fault"
	"github.com/tomallicino/terminal-demo-studio/internal/model"
)

var flagExplain bool

var validateCmd = &cobra.Command{
	Use:     "validate <screenplay.yaml>",
	Short:   "Run the schema validation pass only",
	GroupID: groupExec,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagJSONSchema {
			fmt.Println(screenplaySchema)
			return nil
		}
		if len(args) == 0 {
			return fault.New(fault.ValidationError, "validate requires a screenplay path", nil)
		}

		raw, err := document.Load(args[0])
		if err != nil {
			return fault.New(fault.ValidationError, err.Error(), nil)
		}

		sp, errs := model.Build(raw)
		if len(errs) > 0 {
			if flagJSON {
				lines := make([]string, len(errs))
				for i, e := range errs {
					lines[i] = e.Error()
				}
				enc, _ := json.MarshalIndent(struct {
					Valid  bool     `json:"valid"`
					Errors []string `json:"errors"`
				}{Valid: false, Errors: lines}, "", "  ")
				fmt.Println(string(enc))
			} else {
				for _, e := range errs {
					fmt.Fprintln(os.Stderr, e.Error())
					if flagExplain {
						fmt.Fprintln(os.Stderr, "  fix: correct the field named above and re-run validate")
					}
				}
			}
			return fault.Validation("screenplay", fmt.Sprintf("%d validation error(s)", len(errs)))
		}

		if flagJSON {
			enc, _ := json.MarshalIndent(struct {
				Valid bool   `json:"valid"`
				Title string `json:"title"`
			}{Valid: true, Title: sp.Title}, "", "  ")
			fmt.Println(string(enc))
		} else {
			fmt.Println(stylize("valid") + ": " + sp.Title)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&flagExplain, "explain", false, "print a remediation hint alongside each error")
	validateCmd.Flags().BoolVar(&flagJSONSchema, "json-schema", false, "print the screenplay JSON schema instead of validating")
}

var flagJSONSchema bool

// screenplaySchema is a human-oriented sketch of the screenplay document
// shape, not a machine-enforced JSON Schema: the real enforcement lives in
// model.Build's field-by-field validation.
const screenplaySchema = `{
  "title": "string (required)",
  "output": "string (required; letters, digits, '-', '_', '.' only)",
  "settings": {"width": "int", "height": "int", "theme": "string", "font": "string", "framerate": "int", "padding": "int"},
  "playback": "sequential | simultaneous",
  "variables": {"<name>": "string"},
  "preinstall": ["string"],
  "agent_prompts": {"mode": "manual|approve|deny|auto", "prompt_regex": "string", "allow_regex": "string", "allowed_command_prefixes": ["string"], "max_rounds": "int"},
  "scenarios": [{
    "label": "string (required)",
    "execution_mode": "auto|scripted|interactive|visual",
    "shell": "string",
    "setup": ["string"],
    "agent_prompts": "<same shape as top-level>",
    "actions": ["string (a command)", {"<command|input|key|hotkey|sleep|wait_stable|wait_for|wait_screen_regex|wait_line_regex|assert_screen_regex|assert_not_screen_regex|expect_exit_code>": "the action's value", "...": "optional step fields"}]
  }]
}`
