package pipeline

import (
	"context"
	"sync"
	"time"

	"coursegen/internal/analyze"
	"coursegen/internal/apperr"
	"coursegen/internal/logging"
)

// SchedulerResult aggregates one batch run. Failed counts results whose
// HasErrors flag is set; they are still present in Analyses.
type SchedulerResult struct {
	Analyses  map[string]*analyze.FileAnalysis
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Scheduler fans file paths out to a bounded worker pool. Each file gets its
// own timeout so one pathological file cannot stall the batch.
type Scheduler struct {
	pipeline *Pipeline
	workers  int
	timeout  time.Duration
	logger   *logging.Logger
}

// NewScheduler sizes the pool from configuration.
func NewScheduler(p *Pipeline, logger *logging.Logger) *Scheduler {
	workers := p.cfg.MaxParallelFiles
	if workers < 1 {
		workers = 1
	}
	timeout := time.Duration(p.cfg.ParseTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{pipeline: p, workers: workers, timeout: timeout, logger: logger}
}

// Run analyzes all paths and returns the collected results. Force is passed
// through to every file so a forced run recomputes instead of reading the
// cache. The error is non-nil only for scheduler-level faults such as
// context cancellation; per-file problems land in the individual results.
func (s *Scheduler) Run(ctx context.Context, paths []string, force bool) (*SchedulerResult, error) {
	start := time.Now()
	result := &SchedulerResult{
		Analyses: make(map[string]*analyze.FileAnalysis, len(paths)),
	}
	if len(paths) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	fileCh := make(chan string)
	resultCh := make(chan *analyze.FileAnalysis)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range fileCh {
				resultCh <- s.analyzeOne(ctx, path, force)
			}
		}()
	}

	go func() {
		defer close(fileCh)
		for _, path := range paths {
			select {
			case fileCh <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for fa := range resultCh {
		result.Analyses[fa.FilePath] = fa
		if fa.HasErrors {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}
	result.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return result, apperr.Wrap(apperr.Internal, "analysis interrupted", err)
	}

	s.logger.Debug("batch complete", map[string]interface{}{
		"files":     len(paths),
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"duration":  result.Duration.String(),
	})
	return result, nil
}

// analyzeOne applies the per-file timeout. The pipeline goroutine is left to
// finish in the background on timeout; its buffered channel keeps it from
// leaking.
func (s *Scheduler) analyzeOne(ctx context.Context, path string, force bool) *analyze.FileAnalysis {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan *analyze.FileAnalysis, 1)
	go func() {
		done <- s.pipeline.AnalyzeFile(tctx, path, force)
	}()

	select {
	case fa := <-done:
		return fa
	case <-tctx.Done():
		s.logger.Warn("file analysis timed out", map[string]interface{}{
			"path":    path,
			"timeout": s.timeout.String(),
		})
		return &analyze.FileAnalysis{
			FilePath:   path,
			AnalyzedAt: time.Now(),
			HasErrors:  true,
			Errors:     []string{string(apperr.Timeout) + ": analysis exceeded " + s.timeout.String()},
		}
	}
}
