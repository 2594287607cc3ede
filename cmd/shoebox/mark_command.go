package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shoebox/internal/ipc"
)

func newMarkCommand(ctx *commandContext) *cobra.Command {
	var unset bool
	var recursive bool
	cmd := &cobra.Command{
		Use:   "mark <path>",
		Short: "Flag a folder as processed or unprocessed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetProcessed(args[0], !unset, recursive)
				if err != nil {
					return err
				}
				if !resp.Updated {
					return fmt.Errorf("folder %s was not updated", args[0])
				}
				state := "processed"
				if unset {
					state = "unprocessed"
				}
				if recursive {
					fmt.Fprintf(cmd.OutOrStdout(), "Marked %s and descendants as %s\n", args[0], state)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as %s\n", args[0], state)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unset, "unset", false, "Clear the processed flag instead of setting it")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Apply to every descendant folder")
	return cmd
}

func newRescanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rescan",
		Short: "Rebuild the folder status tree from disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Rescan()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rescan complete: %d folders tracked\n", resp.FolderCount)
				return nil
			})
		},
	}
}
