package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"shoebox/internal/ipc"
	"shoebox/internal/library"
)

func newFoldersCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "folders [path]",
		Short: "List folder processing status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Folders(path)
				if err != nil {
					return err
				}
				sortFolderRows(resp.Folders)

				if asJSON {
					return writeJSON(cmd, resp)
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Folders) == 0 {
					fmt.Fprintf(stdout, "No folders under %s\n", resp.Path)
					return nil
				}

				rows := make([][]string, 0, len(resp.Folders))
				for _, row := range resp.Folders {
					rows = append(rows, []string{
						row.Name,
						strconv.Itoa(row.NumSubfolders),
						strconv.Itoa(row.NumFiles),
						string(row.Status),
					})
				}
				table := renderTable(
					[]string{"Folder", "Subfolders", "Files", "Status"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

// sortFolderRows orders rows the way a file browser would: numeric runs in
// names compare by value, so "2" sorts before "10".
func sortFolderRows(rows []library.ChildStatus) {
	coll := collate.New(language.Und, collate.Numeric)
	sort.SliceStable(rows, func(i, j int) bool {
		return coll.CompareString(rows[i].Name, rows[j].Name) < 0
	})
}
