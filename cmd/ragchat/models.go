package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ragchat/internal/contextutil"
	"ragchat/internal/dependency"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the LLM server offers",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, _ []string) error {
	container, err := dependency.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}
	defer func() {
		_ = container.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	snap := container.Session().Snapshot()
	if snap.HasToken() {
		ctx = contextutil.WithToken(ctx, snap.Token)
	}

	models, err := container.LLMClient().ListModels(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range models {
		marker := " "
		if m.Name == snap.DefaultModel {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, m.Name)
	}
	return nil
}
