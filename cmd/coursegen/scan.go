package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scanWarm bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover analyzable files and record a scan manifest",
	Long: `Walk the repository, collect every supported source file, and persist the
manifest that later analysis runs resolve files through.`,
	Run: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanWarm, "warm", false,
		"Preload scanned files into the resource cache")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	ctx := newContext()
	engine := mustGetEngine(ctx)
	defer engine.Close()

	manifest, err := engine.Scanner.Scan(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Scanned %s\n", manifest.Root)
	fmt.Printf("  codebase id: %s\n", manifest.CodebaseID)
	fmt.Printf("  files:       %d\n", len(manifest.Files))

	if scanWarm {
		warmed := engine.Scanner.WarmResources(ctx, manifest)
		fmt.Printf("  warmed:      %d\n", warmed)
	}
}
