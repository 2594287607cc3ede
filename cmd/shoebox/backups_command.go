package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shoebox/internal/ipc"
)

func newBackupsCommand(ctx *commandContext) *cobra.Command {
	backupsCmd := &cobra.Command{
		Use:   "backups",
		Short: "Manage folder status snapshot backups",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshot backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Backups()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Backups) == 0 {
					fmt.Fprintln(stdout, "No backups found")
					return nil
				}
				rows := make([][]string, 0, len(resp.Backups))
				for _, backup := range resp.Backups {
					rows = append(rows, []string{
						backup.Filename,
						backup.Date.Local().Format("2006-01-02 15:04:05"),
						strconv.FormatInt(backup.Size, 10),
					})
				}
				table := renderTable(
					[]string{"Backup", "Date", "Bytes"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")

	restoreCmd := &cobra.Command{
		Use:   "restore <path>",
		Short: "Replace the live folder status tree with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RestoreBackup(args[0])
				if err != nil {
					return err
				}
				if !resp.Restored {
					return fmt.Errorf("backup %s was not restored", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored folder status from %s\n", args[0])
				return nil
			})
		},
	}

	backupsCmd.AddCommand(listCmd)
	backupsCmd.AddCommand(restoreCmd)
	return backupsCmd
}
