// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/snipper/internal/run"
	"github.com/pdiddy/snipper/pkg/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan and validate snippets without writing anything",
	Long: `Scan walks the source tree for snippet blocks and the LaTeX tree for
inclusion directives, validates both, and prints the snippet table with
diagnostics. The target directory is never modified; use extract to write.

Parse errors, duplicate tags, and target path collisions are fatal and exit
non-zero. Unreadable files, unresolved references, and orphaned target files
are warnings only.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := scanConfigFromCmd(cmd)
	if err != nil {
		return err
	}

	report, err := run.Scan(context.Background(), cfg, os.Stderr)
	if err != nil {
		return err
	}

	return emitReport(cmd, report)
}

// emitReport prints a run report to stdout and optionally saves it.
func emitReport(cmd *cobra.Command, report *run.Report) error {
	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		if err := report.WriteYAML(reportPath); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Report written to", reportPath)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	report.WriteTable(os.Stdout)
	return nil
}

// addScanFlags registers the flags shared by every command that runs the
// scan pipeline.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "", "root directory of source files (config: scan.source_dir)")
	cmd.Flags().String("latex", "", "root directory of the LaTeX document (config: scan.latex_dir)")
	cmd.Flags().String("target", "", "directory extracted snippets are written to (config: scan.target_dir)")
	cmd.Flags().StringSlice("include", nil, "glob patterns for source files to visit (default all)")
	cmd.Flags().StringSlice("exclude", nil, "glob patterns for source files to skip")
	cmd.Flags().Int("workers", 0, "parse worker pool size (default 4)")
	cmd.Flags().Bool("json", false, "output the report as JSON")
	cmd.Flags().String("report", "", "also write the report to a YAML file")
}

// scanConfigFromCmd builds a ScanConfig from flags, falling back to the
// viper config file for anything not set on the command line.
func scanConfigFromCmd(cmd *cobra.Command) (types.ScanConfig, error) {
	cfg := types.ScanConfig{
		SourceDir: stringSetting(cmd, "source", "scan.source_dir"),
		LatexDir:  stringSetting(cmd, "latex", "scan.latex_dir"),
		TargetDir: stringSetting(cmd, "target", "scan.target_dir"),
	}

	cfg.Include, _ = cmd.Flags().GetStringSlice("include")
	if len(cfg.Include) == 0 {
		cfg.Include = viper.GetStringSlice("scan.include")
	}
	cfg.Exclude, _ = cmd.Flags().GetStringSlice("exclude")
	if len(cfg.Exclude) == 0 {
		cfg.Exclude = viper.GetStringSlice("scan.exclude")
	}

	cfg.Workers, _ = cmd.Flags().GetInt("workers")
	if cfg.Workers == 0 {
		cfg.Workers = viper.GetInt("scan.workers")
	}

	if cfg.SourceDir == "" {
		return cfg, fmt.Errorf("source directory required: pass --source or set scan.source_dir")
	}
	if cfg.TargetDir == "" {
		return cfg, fmt.Errorf("target directory required: pass --target or set scan.target_dir")
	}
	return cfg, nil
}

// stringSetting reads a flag, falling back to the viper key.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return viper.GetString(key)
}

func init() {
	addScanFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
}
