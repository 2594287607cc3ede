package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"shoebox/internal/disposition"
	"shoebox/internal/importer"
	"shoebox/internal/ipc"
	"shoebox/internal/tasks"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Stage, analyze, and commit an import batch",
	}

	importCmd.AddCommand(newImportStageCommand(ctx))
	importCmd.AddCommand(newImportAnalyzeCommand(ctx))
	importCmd.AddCommand(newImportCommitCommand(ctx))

	return importCmd
}

func newImportStageCommand(ctx *commandContext) *cobra.Command {
	var detach bool
	cmd := &cobra.Command{
		Use:   "stage <source>",
		Short: "Copy a source folder into the staging area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stage(args[0])
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if detach {
					fmt.Fprintf(stdout, "Staging started: task %s\n", resp.TaskID)
					return nil
				}

				progress, err := awaitTask(cmd, client, resp.TaskID)
				if err != nil {
					return err
				}
				var result importer.StageResult
				if err := decodeTaskData(progress, &result); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Staged %d files from %s\n", result.FilesCopied, result.OriginalPath)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&detach, "detach", false, "Return the task id instead of waiting")
	return cmd
}

func newImportAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var startDate string
	var endDate string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze <source>",
		Short: "Guess capture dates for every staged file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Analyze(args[0], startDate, endDate)
				if err != nil {
					return err
				}
				progress, err := awaitTask(cmd, client, resp.TaskID)
				if err != nil {
					return err
				}
				var analysis importer.Analysis
				if err := decodeTaskData(progress, &analysis); err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, analysis)
				}

				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Analyzed %d files from %s\n", analysis.TotalFiles(), analysis.OriginalPath)
				fmt.Fprintf(stdout, "  with dates:    %d\n", len(analysis.FilesWithDates))
				fmt.Fprintf(stdout, "  without dates: %d\n", len(analysis.FilesWithoutDates))
				fmt.Fprintf(stdout, "  ignored:       %d\n", len(analysis.IgnoredFiles))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&startDate, "start-date", "", "Reject guessed dates before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "Reject guessed dates after this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full analysis as JSON")
	return cmd
}

func newImportCommitCommand(ctx *commandContext) *cobra.Command {
	var decisionsPath string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Apply decisions to the staged batch and relocate files",
		RunE: func(cmd *cobra.Command, args []string) error {
			decisions, err := loadDecisions(decisionsPath)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Commit(decisions)
				if err != nil {
					return err
				}
				progress, err := awaitTask(cmd, client, resp.TaskID)
				if err != nil {
					return err
				}
				var result disposition.Result
				if err := decodeTaskData(progress, &result); err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Commit complete: %d edited, %d deleted, %d ignored, %d copied\n",
					len(result.FilesEdited), len(result.FilesDeleted), len(result.FilesIgnored), len(result.FilesCopied))
				for _, line := range result.Errors {
					fmt.Fprintf(stdout, "  error: %s\n", line)
				}
				if result.ReportPath != "" {
					fmt.Fprintf(stdout, "Report written to %s\n", result.ReportPath)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&decisionsPath, "decisions", "d", "", "JSON file mapping staged paths to ignore/delete/date decisions")
	return cmd
}

// loadDecisions reads a JSON object mapping staged file paths to a decision
// string. An empty path means no decisions: every file keeps its guessed date.
func loadDecisions(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read decisions file: %w", err)
	}
	decisions := map[string]string{}
	if err := json.Unmarshal(data, &decisions); err != nil {
		return nil, fmt.Errorf("parse decisions file: %w", err)
	}
	return decisions, nil
}

// awaitTask polls the daemon until the task reaches a terminal state. A task
// that vanished mid-poll was flushed by another interaction.
func awaitTask(cmd *cobra.Command, client *ipc.Client, id string) (tasks.Progress, error) {
	for {
		resp, err := client.Task(id)
		if err != nil {
			return tasks.Progress{}, err
		}
		switch resp.Progress.Status {
		case tasks.StatusCompleted:
			if message := taskError(resp.Progress); message != "" {
				return tasks.Progress{}, fmt.Errorf("task failed: %s", message)
			}
			return resp.Progress, nil
		case tasks.StatusNotFound:
			return tasks.Progress{}, fmt.Errorf("task %s was flushed before completing", id)
		}

		select {
		case <-cmd.Context().Done():
			return tasks.Progress{}, cmd.Context().Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// taskError extracts the error payload a failed worker leaves in task data.
func taskError(progress tasks.Progress) string {
	data, ok := progress.Data.(map[string]any)
	if !ok {
		return ""
	}
	message, _ := data["error"].(string)
	return message
}

// decodeTaskData round-trips the loosely typed task payload into v.
func decodeTaskData(progress tasks.Progress, v any) error {
	raw, err := json.Marshal(progress.Data)
	if err != nil {
		return fmt.Errorf("encode task data: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode task data: %w", err)
	}
	return nil
}
