package main

import (
	"github.com/spf13/cobra"

	"coursegen/internal/version"
)

var (
	// repoFlag is the CLI --repo flag value; empty means the working
	// directory
	repoFlag string
)

var rootCmd = &cobra.Command{
	Use:   "coursegen",
	Short: "coursegen - incremental codebase analysis engine",
	Long: `coursegen analyzes a codebase for course generation: it extracts symbols,
code patterns, complexity and documentation facts per file, ranks files by
teaching value, and reuses cached results so repeated runs only pay for what
changed.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("coursegen version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "",
		"Repository root to analyze (default: current directory)")
}
