package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"remedy/internal/classify"
	"remedy/internal/heal"
	"remedy/internal/policy"
	"remedy/internal/research"
	"remedy/internal/runner"
	"remedy/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools this engine exposes to host agents",
	RunE:  runTools,
}

func runTools(cmd *cobra.Command, args []string) error {
	run := runner.NewDirectRunnerWithConfig(runner.ConfigFrom(cfg))

	var rc *research.Client
	if cfg.Healing.ConsultResearch {
		rc = research.NewClient(&cfg.Research)
	}

	registry := tools.NewRegistry()
	tools.RegisterBuiltins(registry, tools.Deps{
		Gate:       policy.NewGate(cfg),
		Runner:     run,
		Loop:       heal.NewLoop(cfg, run, rc),
		Classifier: classify.NewClassifier(),
		Research:   rc,
	})

	for _, name := range registry.Names() {
		tool := registry.Get(name)
		fmt.Printf("%-16s %-10s %s\n", tool.Name, tool.Category, tool.Description)
		params := make([]string, 0, len(tool.Schema.Properties))
		for param := range tool.Schema.Properties {
			params = append(params, param)
		}
		sort.Strings(params)
		for _, param := range params {
			prop := tool.Schema.Properties[param]
			required := ""
			for _, r := range tool.Schema.Required {
				if r == param {
					required = " (required)"
					break
				}
			}
			fmt.Printf("    %-14s %s%s - %s\n", param, prop.Type, required, prop.Description)
		}
	}
	fmt.Printf("\n%d tool(s) registered\n", registry.Count())
	return nil
}
