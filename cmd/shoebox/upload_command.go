package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shoebox/internal/services/immich"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file or folder to the configured Immich server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client, err := immich.NewClient(cfg, nil)
			if errors.Is(err, immich.ErrDisabled) {
				return fmt.Errorf("immich upload is not configured; set base_url and api_key in the [immich] config section")
			}
			if err != nil {
				return err
			}

			summary, err := client.UploadPath(cmd.Context(), args[0], recursive)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			for _, result := range summary.Results {
				if result.OK {
					fmt.Fprintf(stdout, "uploaded %s\n", result.Path)
				} else {
					fmt.Fprintf(stdout, "failed %s: %s\n", result.Path, result.Error)
				}
			}
			fmt.Fprintf(stdout, "Uploaded %d of %d files in %s\n",
				summary.Uploaded, summary.Total, summary.Elapsed.Round(10*time.Millisecond))
			if summary.Failed > 0 {
				return fmt.Errorf("%d uploads failed", summary.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Upload files in subdirectories as well")
	return cmd
}
