package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tomallicino/terminal-demo-studio/internal/fault"
)

var debugCmd = &cobra.Command{
	Use:     "debug <run_dir>",
	Short:   "Summarize a completed run's artifacts",
	GroupID: groupDiag,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]

		manifest, err := readJSONFile(filepath.Join(dir, "manifest.json"))
		if err != nil {
			return fault.New(fault.ValidationError, fmt.Sprintf("reading manifest.json: %v", err), nil)
		}
		summary, err := readJSONFile(filepath.Join(dir, "summary.json"))
		if err != nil {
			return fault.New(fault.ValidationError, fmt.Sprintf("reading summary.json: %v", err), nil)
		}

		if flagJSON {
			enc, _ := json.MarshalIndent(struct {
				Manifest any `json:"manifest"`
				Summary  any `json:"summary"`
			}{manifest, summary}, "", "  ")
			fmt.Println(string(enc))
			return nil
		}

		fmt.Println(stylize("run") + ": " + dir)
		printField(manifest, "title", "title")
		printField(summary, "status", "status")
		printField(summary, "lane", "lane")
		printField(summary, "reason", "reason")

		failureDir := filepath.Join(dir, "failure")
		if info, err := os.Stat(failureDir); err == nil && info.IsDir() {
			fmt.Println("\nfailure bundle:")
			entries, _ := os.ReadDir(failureDir)
			for _, e := range entries {
				fmt.Println("  " + filepath.Join(failureDir, e.Name()))
			}
		}
		return nil
	},
}

func readJSONFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func printField(v any, key, label string) {
	m, ok := v.(map[string]any)
	if !ok {
		return
	}
	if val, ok := m[key]; ok && val != "" && val != nil {
		fmt.Printf("  %s: %v\n", label, val)
	}
}
