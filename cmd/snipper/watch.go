// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pdiddy/snipper/internal/run"
	"github.com/pdiddy/snipper/pkg/types"
)

const defaultDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the scan whenever the source tree changes",
	Long: `Watch monitors the source tree and re-runs a full scan whenever files
change, coalescing rapid event bursts. With --extract each re-run also
applies the write policy to the target directory. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := scanConfigFromCmd(cmd)
	if err != nil {
		return err
	}

	debounce, _ := cmd.Flags().GetDuration("debounce")
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	doExtract, _ := cmd.Flags().GetBool("extract")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, cfg.SourceDir); err != nil {
		return err
	}
	if cfg.LatexDir != "" {
		if err := watchTree(watcher, cfg.LatexDir); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One pass up front so the first report does not wait for a change.
	if err := watchPass(ctx, cfg, doExtract); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Watching %s for changes...\n", cfg.SourceDir)

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Writes into the target directory are our own.
			if withinDir(event.Name, cfg.TargetDir) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					watchTree(watcher, event.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "warning: watcher: %v\n", err)

		case <-pending:
			pending = nil
			if err := watchPass(ctx, cfg, doExtract); err != nil {
				// Fatal validation errors are expected mid-edit; report
				// and keep watching.
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
	}
}

// watchPass runs one scan (or extract) and prints the table.
func watchPass(ctx context.Context, cfg types.ScanConfig, doExtract bool) error {
	var report *run.Report
	var err error
	if doExtract {
		report, err = run.Extract(ctx, cfg, os.Stdout)
	} else {
		report, err = run.Scan(ctx, cfg, os.Stderr)
	}
	if err != nil {
		return err
	}
	report.WriteTable(os.Stdout)
	return nil
}

// watchTree registers dir and every subdirectory with the watcher.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping %s: %v\n", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot watch %s: %v\n", path, err)
		}
		return nil
	})
}

// withinDir reports whether path is dir or inside it.
func withinDir(path, dir string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

func init() {
	addScanFlags(watchCmd)
	watchCmd.Flags().Bool("extract", false, "apply the write policy on each re-run")
	watchCmd.Flags().Duration("debounce", defaultDebounce, "how long to coalesce change events")

	rootCmd.AddCommand(watchCmd)
}
