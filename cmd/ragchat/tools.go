package main

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"ragchat/internal/dependency"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Describe the tools offered to the model",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

func runTools(cmd *cobra.Command, _ []string) error {
	container, err := dependency.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}
	defer func() {
		_ = container.Close()
	}()

	out := cmd.OutOrStdout()
	if cfg.ToolMaxIterations == 0 {
		fmt.Fprintln(out, "tools are disabled (TOOL_MAX_ITERATIONS=0)")
	}
	for _, d := range container.Tools().Descriptors() {
		fmt.Fprintf(out, "%s: %s\n", d.Name, d.Description)

		names := make([]string, 0, len(d.Parameters.Properties))
		for name := range d.Parameters.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := d.Parameters.Properties[name]
			required := ""
			if slices.Contains(d.Parameters.Required, name) {
				required = ", required"
			}
			fmt.Fprintf(out, "  %s (%s%s) %s\n", name, p.Type, required, strings.TrimSpace(p.Description))
		}
	}
	return nil
}
