package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ragchat/internal/dependency"
)

var ingestForce bool

var ingestCmd = &cobra.Command{
	Use:   "ingest PATH",
	Short: "Load a markdown or text file, or a directory of them, into the collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "Re-ingest files whose content is unchanged")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	container, err := dependency.New(cfg, dependency.WithForceIngest(ingestForce))
	if err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}
	defer func() {
		_ = container.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if !info.IsDir() {
		res, err := container.Ingest().IngestFile(ctx, path)
		if err != nil {
			return err
		}
		if res.Unchanged {
			fmt.Fprintf(out, "%s unchanged\n", res.Source)
		} else {
			fmt.Fprintf(out, "%s: %d chunks\n", res.Source, len(res.Chunks))
		}
		return nil
	}

	report, runErr := container.Ingest().IngestDir(ctx, path)
	if report != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
	return runErr
}
