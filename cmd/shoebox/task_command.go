package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shoebox/internal/ipc"
	"shoebox/internal/tasks"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "task <id>",
		Short: "Show progress for a background task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Task(args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Progress)
				}

				stdout := cmd.OutOrStdout()
				progress := resp.Progress
				if progress.Status == tasks.StatusNotFound {
					fmt.Fprintf(stdout, "Task %s not found\n", args[0])
					return nil
				}
				fmt.Fprintf(stdout, "Task %s: %s %.0f%% (%d/%d files)\n",
					args[0], progress.Status, progress.Progress, progress.ProcessedFiles, progress.TotalFiles)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newFlushCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Abort in-flight tasks and drop the retained analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.FlushTasks(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Tasks flushed")
				return nil
			})
		},
	}
}
