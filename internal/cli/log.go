// Package cli implements the schoolchoice command-line interface.
//
// Commands share one [CLI] value holding the logger and the loaded
// configuration. Solving goes through [pipeline.Runner] so the CLI and the
// HTTP server cache and log identically.
//
// # Commands
//
//   - solve: run mechanisms over a market read from text or JSON files
//   - generate: draw a random market
//   - render: draw a matching or the Top Trading Cycles trace as DOT or SVG
//   - browse: inspect stored problems interactively
//   - serve: run the HTTP API
//   - store: list, show and delete stored problems
//   - cache, config: inspect local state
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long a step took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time rounded to the millisecond, plus any
// key-value pairs, e.g. "Solved market (12ms) students=40".
func (p *progress) done(msg string, keyvals ...any) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.logger.Info(msg+" ("+elapsed.String()+")", keyvals...)
}
