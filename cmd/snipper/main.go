// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the snipper CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the snipper CLI.
var rootCmd = &cobra.Command{
	Use:   "snipper",
	Short: "Extract tagged code snippets into standalone files for LaTeX inclusion",
	Long: `snipper collects tagged blocks of code ("snippets") from a source tree and
materializes each as a standalone file, so a LaTeX document can include
up-to-date listings by file path instead of copy-paste.

Blocks are delimited with SNIPPET:BEGIN {tag} / SNIPPET:END {tag} markers
embedded in any comment syntax. An underscore prefix (_SNIPPET:BEGIN) freezes
a block: it is captured once and then preserved even as the source drifts.

The default action is a read-only scan that validates the corpus and reports
what would happen; writing requires the explicit extract command.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./snipper.yaml or ~/.config/snipper/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("snipper")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "snipper"))
		}
	}

	viper.SetEnvPrefix("SNIPPER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
