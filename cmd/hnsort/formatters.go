package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/pevans/hnsort/article"
	"github.com/pevans/hnsort/history"
	"github.com/pevans/hnsort/pipeline"
)

const (
	titleWidth = 60
	ageWidth   = 16
)

// cell truncates s to width display columns and pads it to exactly width.
// Wide characters count as two columns.
func cell(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "..."), width)
}

// printItemsTable prints items in listing order
func printItemsTable(w io.Writer, items []article.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items to display.")
		return
	}

	fmt.Fprintf(w, "%4s  %-10s  %s  %s  %s\n", "#", "ID", cell("TITLE", titleWidth), cell("AGE", ageWidth), "SITE")
	fmt.Fprintln(w, strings.Repeat("-", 4+2+10+2+titleWidth+2+ageWidth+2+20))

	for _, item := range items {
		fmt.Fprintf(w, "%4d  %-10s  %s  %s  %s\n",
			item.Index,
			item.ID,
			cell(item.Title, titleWidth),
			cell(item.Age, ageWidth),
			item.Site,
		)
	}
}

// printRunsTable prints run summaries, newest first
func printRunsTable(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-16s  %-12s  %9s  %s\n", "RUN ID", "STARTED", "OUTCOME", "COLLECTED", "DURATION")
	fmt.Fprintln(w, strings.Repeat("-", 36+2+16+2+12+2+9+2+10))

	for _, run := range runs {
		fmt.Fprintf(w, "%-36s  %-16s  %-12s  %9s  %s\n",
			run.RunID.String(),
			humanize.Time(run.StartedAt),
			run.Outcome,
			fmt.Sprintf("%d/%d", run.Collected, run.Target),
			run.Duration().Round(10 * time.Millisecond),
		)
	}
}

// printRunDetail prints every field of one run
func printRunDetail(w io.Writer, run *history.Run) {
	fmt.Fprintf(w, "Run:       %s\n", run.RunID.String())
	fmt.Fprintf(w, "Source:    %s\n", run.Source)
	fmt.Fprintf(w, "Started:   %s (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(run.StartedAt))
	fmt.Fprintf(w, "Duration:  %s\n", run.Duration().Round(10 * time.Millisecond))
	fmt.Fprintf(w, "Outcome:   %s\n", run.Outcome)
	fmt.Fprintf(w, "Collected: %s of %s\n", humanize.Comma(int64(run.Collected)), humanize.Comma(int64(run.Target)))
	if run.OutputPath != "" {
		fmt.Fprintf(w, "Output:    %s\n", run.OutputPath)
	}
	if run.Error != nil {
		fmt.Fprintf(w, "Error:     %s\n", *run.Error)
	}
}

// printReport prints the outcome of a run
func printReport(w io.Writer, report *pipeline.Report, outputPath string) {
	switch report.Kind {
	case pipeline.KindNone:
		fmt.Fprintf(w, "✓ Collected %d items, sorted newest to oldest\n", len(report.Items))
	case pipeline.KindCollection:
		fmt.Fprintf(w, "✗ Collection failed, nothing was written\n")
	case pipeline.KindPersist:
		fmt.Fprintf(w, "✗ Collected %d items but could not write them\n", len(report.Items))
	default:
		fmt.Fprintf(w, "✗ Collected %d items, validation failed (%s)\n", len(report.Items), report.Kind)
	}

	if len(report.Items) > 0 && report.Kind != pipeline.KindPersist {
		fmt.Fprintf(w, "  Output: %s\n", outputPath)
	}
	fmt.Fprintf(w, "  Run ID: %s\n", report.RunID.String())
	fmt.Fprintf(w, "  Duration: %s\n", report.Duration().Round(10 * time.Millisecond))
}
