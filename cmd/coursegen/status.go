package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"coursegen/internal/codebase"
	"coursegen/internal/parser"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine status for this repository",
	Long:  "Display scan state, the last analysis run, and cache backend health.",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := newContext()
	engine := mustGetEngine(ctx)
	defer engine.Close()

	codebaseID := codebase.CodebaseID(engine.Config.RepoRoot)
	fmt.Printf("Repository %s\n", engine.Config.RepoRoot)
	fmt.Printf("  codebase id: %s\n", codebaseID)
	fmt.Printf("  parser:      %s\n", parserState())
	fmt.Printf("  database:    %s\n", engine.DB.Path())
	if engine.Cache.RemoteEnabled() {
		fmt.Printf("  remote tier: connected\n")
	} else {
		fmt.Printf("  remote tier: disabled\n")
	}

	manifest, err := engine.Scanner.LoadManifest(ctx, codebaseID)
	if err != nil {
		fmt.Println("  scan:        none (run `coursegen scan`)")
		return
	}
	fmt.Printf("  scan:        %d files at %s\n",
		len(manifest.Files), manifest.ScannedAt.Format("2006-01-02 15:04:05"))

	if state, ok := engine.Cache.GetSession(codebaseID); ok {
		var session struct {
			LastRunID   string `json:"last_run_id"`
			CompletedAt int64  `json:"completed_at"`
			Files       int    `json:"files"`
			Failed      int    `json:"failed"`
		}
		if json.Unmarshal(state, &session) == nil {
			fmt.Printf("  last run:    %s (%d files, %d failed)\n",
				session.LastRunID, session.Files, session.Failed)
		}
	} else {
		fmt.Println("  last run:    none (run `coursegen analyze`)")
	}
}

func parserState() string {
	if parser.IsAvailable() {
		return "tree-sitter"
	}
	return "unavailable (built without cgo)"
}
