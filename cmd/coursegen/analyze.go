package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"coursegen/internal/codebase"
)

var (
	analyzeForce       bool
	analyzeIncremental bool
	analyzeOutput      string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the scanned codebase",
	Long: `Run the full analysis over the last scan manifest: per-file symbol and
pattern extraction, complexity and documentation metrics, the dependency
graph, and the teaching-value ranking. Unchanged files are reused from
previous runs unless --force is given.`,
	Run: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false,
		"Re-analyze every file, bypassing caches, previous runs, and snapshots")
	analyzeCmd.Flags().BoolVar(&analyzeIncremental, "incremental", true,
		"Reuse results for files whose content is unchanged")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "summary",
		"Output format (summary, json, yaml)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	ctx := newContext()
	engine := mustGetEngine(ctx)
	defer engine.Close()

	if cmd.Flags().Changed("incremental") {
		engine.Config.EnableIncremental = analyzeIncremental
	}
	result, err := engine.Orchestrator.Analyze(ctx, codebase.AnalyzeOptions{Force: analyzeForce})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing: %v\n", err)
		os.Exit(1)
	}

	switch analyzeOutput {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			os.Exit(1)
		}
	case "yaml":
		if err := yaml.NewEncoder(os.Stdout).Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			os.Exit(1)
		}
	default:
		printSummary(result)
	}
}

func printSummary(result *codebase.CodebaseAnalysis) {
	m := result.Metrics
	fmt.Printf("Analysis %s\n", result.RunID)
	fmt.Printf("  codebase:   %s\n", result.CodebaseID)
	fmt.Printf("  files:      %d analyzed, %d failed, %d reused\n",
		m.AnalyzedFiles, m.FailedFiles, result.ReusedFiles)
	fmt.Printf("  symbols:    %d functions, %d classes\n", m.TotalFunctions, m.TotalClasses)
	fmt.Printf("  complexity: %.2f average\n", m.AverageComplexity)
	fmt.Printf("  docs:       %.0f%% coverage\n", m.AvgDocCoverage*100)
	fmt.Printf("  patterns:   %d\n", m.TotalPatterns)
	fmt.Printf("  cache:      %.0f%% of files reused\n", m.CacheHitRate*100)
	fmt.Printf("  duration:   %s\n", time.Duration(m.DurationMS)*time.Millisecond)

	if len(m.LanguageBreakdown) > 0 {
		langs := make([]string, 0, len(m.LanguageBreakdown))
		for lang := range m.LanguageBreakdown {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		fmt.Println("  languages:")
		for _, lang := range langs {
			fmt.Printf("    %-12s %d\n", lang, m.LanguageBreakdown[lang])
		}
	}

	if len(result.Graph.Cycles) > 0 {
		fmt.Printf("  cycles:     %d import cycle(s)\n", len(result.Graph.Cycles))
	}

	if len(result.TopFiles) > 0 {
		fmt.Println("  top files by teaching value:")
		limit := len(result.TopFiles)
		if limit > 10 {
			limit = 10
		}
		for _, rf := range result.TopFiles[:limit] {
			fmt.Printf("    %.3f  %s\n", rf.Score, rf.Path)
		}
	}
}
