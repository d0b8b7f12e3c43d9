package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the analysis cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache hit rates per tier",
	Run:   runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cache entry across all tiers",
	Run:   runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) {
	ctx := newContext()
	engine := mustGetEngine(ctx)
	defer engine.Close()

	stats := engine.Cache.Stats()
	fmt.Printf("Cache statistics\n")
	fmt.Printf("  memory:     %d hits / %d misses (%d entries, %d bytes)\n",
		stats.Memory.Hits, stats.Memory.Misses, stats.MemoryEntries, stats.MemoryBytes)
	if entries, err := engine.Cache.PersistentEntries(); err == nil {
		fmt.Printf("  persistent: %d hits / %d misses (%d entries)\n",
			stats.Persistent.Hits, stats.Persistent.Misses, entries)
	} else {
		fmt.Printf("  persistent: %d hits / %d misses\n", stats.Persistent.Hits, stats.Persistent.Misses)
	}
	if engine.Cache.RemoteEnabled() {
		fmt.Printf("  remote:     %d hits / %d misses\n", stats.Remote.Hits, stats.Remote.Misses)
	} else {
		fmt.Printf("  remote:     disabled\n")
	}
	fmt.Printf("  evictions:  %d\n", stats.Evictions)
	fmt.Printf("  hit rate:   %.1f%% of %d requests\n", stats.HitRate*100, stats.TotalRequests)

	if snaps, err := engine.Snapshots.Count(); err == nil {
		fmt.Printf("  snapshots:  %d\n", snaps)
	}
}

func runCacheClear(cmd *cobra.Command, args []string) {
	ctx := newContext()
	engine := mustGetEngine(ctx)
	defer engine.Close()

	if err := engine.Cache.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "Error clearing cache: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Cache cleared")
}
