package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"shoebox/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var clear bool
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded import runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()
				if clear {
					if _, err := client.History(ipc.HistoryRequest{Clear: true}); err != nil {
						return err
					}
					fmt.Fprintln(stdout, "History cleared")
					return nil
				}

				resp, err := client.History(ipc.HistoryRequest{Limit: limit})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				if len(resp.Runs) == 0 {
					fmt.Fprintln(stdout, "No recorded runs")
					return nil
				}

				rows := make([][]string, 0, len(resp.Runs))
				for _, run := range resp.Runs {
					rows = append(rows, []string{
						strconv.FormatInt(run.ID, 10),
						run.Kind,
						run.SourcePath,
						strconv.Itoa(run.FilesTotal),
						strconv.Itoa(run.FilesEdited),
						strconv.Itoa(run.FilesDeleted),
						strconv.Itoa(run.FilesCopied),
						strconv.Itoa(run.ErrorCount),
						run.StartedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				table := renderTable(
					[]string{"ID", "Kind", "Source", "Files", "Edited", "Deleted", "Copied", "Errors", "Started"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of runs to list (0 lists all)")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete every recorded run")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
