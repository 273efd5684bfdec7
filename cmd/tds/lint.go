package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomallicino/terminal-demo-studio/internal/document"
	"github.com/tomallicino/terminal-demo-studio/internal/fault"
	"github.com/tomallicino/terminal-demo-studio/internal/model"
)

var flagStrict bool

var lintCmd = &cobra.Command{
	Use:     "lint <screenplay.yaml>",
	Short:   "Run the policy-safety lint pass on a validated screenplay",
	GroupID: groupExec,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := document.Load(args[0])
		if err != nil {
			return fault.New(fault.ValidationError, err.Error(), nil)
		}
		sp, errs := model.Build(raw)
		if len(errs) > 0 {
			return fault.Validation("screenplay", fmt.Sprintf("%d validation error(s); run validate first", len(errs)))
		}

		findings := model.Lint(sp, flagStrict)
		if flagJSON {
			enc, _ := json.MarshalIndent(findings, "", "  ")
			fmt.Println(string(enc))
		} else {
			for _, f := range findings {
				fmt.Println(f.String())
			}
			if len(findings) == 0 {
				fmt.Println(stylize("clean") + ": no lint findings")
			}
		}

		if model.HasErrors(findings) {
			return fault.Validation("screenplay", "lint found error-severity findings")
		}
		return nil
	},
}

func init() {
	lintCmd.Flags().BoolVar(&flagStrict, "strict", false, "promote warning findings to errors")
}
