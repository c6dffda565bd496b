// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/snipper/internal/run"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract snippets into the target directory",
	Long: `Extract runs the same validation as scan and then applies the write
policy to the target directory: active snippets are (re)written to match the
live source, inactive snippets are captured once and preserved afterwards.

The plan is computed fully in memory first; on any fatal error nothing under
the target directory is touched. Stale files for snippets that vanished from
source are reported as orphans but never deleted.`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := scanConfigFromCmd(cmd)
	if err != nil {
		return err
	}

	report, err := run.Extract(context.Background(), cfg, os.Stdout)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return emitReport(cmd, report)
	}
	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		if err := report.WriteYAML(reportPath); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Report written to", reportPath)
	}

	fmt.Println()
	report.WriteSummary(os.Stdout)
	return nil
}

func init() {
	addScanFlags(extractCmd)
	rootCmd.AddCommand(extractCmd)
}
