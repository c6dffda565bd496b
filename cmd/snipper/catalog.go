// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/snipper/internal/catalog"
	"github.com/pdiddy/snipper/internal/run"
	"github.com/pdiddy/snipper/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the snippet catalog (store, list, find, export)",
	Long: `Catalog manages a local SQLite index of snippets across runs. Use
subcommands to ingest the latest scan, list known snippets, search their
bodies with full-text search, or export. The catalog is observational only:
extraction never reads it.`,
}

// --- store subcommand ---

var catalogStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Scan the source tree and ingest the result into the catalog",
	RunE:  runCatalogStore,
}

func runCatalogStore(cmd *cobra.Command, args []string) error {
	cfg, err := scanConfigFromCmd(cmd)
	if err != nil {
		return err
	}

	report, err := run.Scan(context.Background(), cfg, os.Stderr)
	if err != nil {
		return err
	}

	store, err := catalog.NewStore(catalogConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.StoreReport(context.Background(), report); err != nil {
		return err
	}
	fmt.Printf("Cataloged %d snippets.\n", report.Summary.Snippets)
	return nil
}

// --- list subcommand ---

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged snippets",
	RunE:  runCatalogList,
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	store, err := catalog.NewStore(catalogConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(context.Background())
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatEntries(entries, jsonOutput)
}

// --- find subcommand ---

var catalogFindCmd = &cobra.Command{
	Use:   "find [query]",
	Short: "Full-text search across snippet tags and bodies",
	RunE:  runCatalogFind,
}

func runCatalogFind(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search query required")
	}

	store, err := catalog.NewStore(catalogConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Find(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatEntries(entries, jsonOutput)
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to YAML or JSON",
	RunE:  runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := catalog.NewStore(catalogConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background())
	case "json":
		path, err = store.ExportJSON(context.Background())
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func catalogConfig(cmd *cobra.Command) types.CatalogConfig {
	dir, _ := cmd.Flags().GetString("catalog-dir")
	if dir == "" {
		dir = viper.GetString("catalog.catalog_dir")
	}
	if dir == "" {
		dir = ".snipper"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.CatalogConfig{
		CatalogDir: dir,
		MaxResults: maxResults,
	}
}

func formatEntries(entries []catalog.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No snippets cataloged.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-30s  %-8s  %-10s  %-30s  %s\n",
		"Snippet", "State", "Action", "Source", "Last seen")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, e := range entries {
		state := "active"
		if !e.Active {
			state = "frozen"
		}
		tag := e.Tag
		if len(tag) > 30 {
			tag = tag[:27] + "..."
		}
		source := filepath.Base(e.File)
		if len(source) > 30 {
			source = source[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-30s  %-8s  %-10s  %-30s  %s\n",
			tag, state, e.Action, source, e.LastSeen)
	}

	fmt.Fprintf(os.Stdout, "\n%d snippets\n", len(entries))
	return nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	catalogCmd.PersistentFlags().String("catalog-dir", "", "directory for the catalog database (default .snipper)")
	catalogCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	addScanFlags(catalogStoreCmd)

	catalogListCmd.Flags().Bool("json", false, "output entries as JSON")

	catalogFindCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	catalogFindCmd.Flags().Bool("json", false, "output entries as JSON")

	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	// Wire subcommands.
	catalogCmd.AddCommand(catalogStoreCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogFindCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
