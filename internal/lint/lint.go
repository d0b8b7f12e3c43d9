// Package lint runs an external linter per file and folds its findings into
// analysis results. Linting is advisory: no linter outcome ever fails an
// analysis.
package lint

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"coursegen/internal/analyze"
	"coursegen/internal/logging"
)

// Outcome classifies one linter invocation.
type Outcome string

const (
	// OutcomeClean means the tool ran and reported nothing.
	OutcomeClean Outcome = "clean"
	// OutcomeIssues means the tool ran and reported findings.
	OutcomeIssues Outcome = "issues"
	// OutcomeToolMissing means the configured binary is not installed.
	OutcomeToolMissing Outcome = "tool_missing"
	// OutcomeToolFailed means the tool crashed or misbehaved.
	OutcomeToolFailed Outcome = "tool_failed"
)

// Runner invokes one external linter binary. The tool is expected to follow
// the common convention: exit 0 for a clean file, exit 1 when it found
// issues, anything else for an internal failure. Output lines of the form
// "path:line:col: message" become issues.
type Runner struct {
	binary  string
	args    []string
	timeout time.Duration
	logger  *logging.Logger

	lastOutcome Outcome
}

// NewRunner builds a runner for the given tool. Extra args are passed before
// the file path.
func NewRunner(binary string, args []string, logger *logging.Logger) *Runner {
	return &Runner{
		binary:  binary,
		args:    args,
		timeout: 10 * time.Second,
		logger:  logger,
	}
}

// Lint runs the tool against one file. Failures degrade to zero issues.
// An arg equal to "{language}" is replaced with the file's language id, for
// tools that take it as a flag value.
func (r *Runner) Lint(ctx context.Context, path, language string) []analyze.LintIssue {
	if r.binary == "" {
		r.lastOutcome = OutcomeToolMissing
		return nil
	}
	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := make([]string, 0, len(r.args)+1)
	for _, a := range r.args {
		if a == "{language}" {
			a = language
		}
		args = append(args, a)
	}
	args = append(args, path)
	cmd := exec.CommandContext(tctx, r.binary, args...)
	output, err := cmd.Output()

	outcome := classify(err)
	r.lastOutcome = outcome
	switch outcome {
	case OutcomeClean:
		return nil
	case OutcomeToolMissing:
		r.logger.Debug("linter not installed", map[string]interface{}{"binary": r.binary})
		return nil
	case OutcomeToolFailed:
		r.logger.Warn("linter failed", map[string]interface{}{
			"binary": r.binary,
			"path":   path,
			"error":  err.Error(),
		})
		return nil
	}
	return parseIssues(output)
}

// LastOutcome reports how the most recent invocation ended.
func (r *Runner) LastOutcome() Outcome {
	return r.lastOutcome
}

func classify(err error) Outcome {
	if err == nil {
		return OutcomeClean
	}
	if execErr, ok := err.(*exec.Error); ok && execErr.Err == exec.ErrNotFound {
		return OutcomeToolMissing
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return OutcomeIssues
	}
	return OutcomeToolFailed
}

// parseIssues reads "path:line:col: message" lines. Lines that do not match
// are skipped; a linter's prose output is not worth failing over.
func parseIssues(output []byte) []analyze.LintIssue {
	var issues []analyze.LintIssue
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		if issue, ok := parseLine(scanner.Text()); ok {
			issues = append(issues, issue)
		}
	}
	return issues
}

func parseLine(line string) (analyze.LintIssue, bool) {
	parts := strings.SplitN(line, ":", 4)
	if len(parts) < 3 {
		return analyze.LintIssue{}, false
	}
	lineNo, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return analyze.LintIssue{}, false
	}
	issue := analyze.LintIssue{Line: lineNo}
	rest := parts[2]
	if len(parts) == 4 {
		if col, err := strconv.Atoi(strings.TrimSpace(parts[2])); err == nil {
			issue.Column = col
			rest = parts[3]
		} else {
			rest = parts[2] + ":" + parts[3]
		}
	}
	issue.Message = strings.TrimSpace(rest)
	if issue.Message == "" {
		return analyze.LintIssue{}, false
	}
	if strings.HasPrefix(strings.ToLower(issue.Message), "warning") {
		issue.Severity = "warning"
	} else {
		issue.Severity = "error"
	}
	return issue, true
}
