// Package cli provides CLI utilities for Utsushi.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/utsushi/internal/models"
)

// OutputFormat is the format for report output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteDetectionReport writes a detection report to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteDetectionReport(w io.Writer, report *models.DetectionReport, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		writeDetectionReportText(w, report)
		return nil
	}
}

func writeDetectionReportText(w io.Writer, report *models.DetectionReport) {
	fmt.Fprintf(w, "\nRun %s: %d submission(s), %d pair(s) evaluated in %dms (threshold %.2f)\n\n",
		report.RunID, report.Submissions, report.PairsEvaluated, report.RunTime, report.Threshold)
	if len(report.SimilarPairs) == 0 {
		fmt.Fprintln(w, "No similar pairs found.")
	} else {
		fmt.Fprintf(w, "%d similar pair(s):\n", len(report.SimilarPairs))
		caveats := caveatIndex(report.Diagnostics)
		for _, pair := range report.SimilarPairs {
			line := fmt.Sprintf("  %.6f  %s <-> %s", pair.Score, pair.StudentA, pair.StudentB)
			if c, ok := caveats[pair.StudentA+"\x00"+pair.StudentB]; ok {
				line += "  (" + c + ")"
			}
			fmt.Fprintln(w, line)
		}
	}
	writeDiagnosticsText(w, report.Diagnostics)
}

// caveatIndex maps "a\x00b" pair keys to their caveat label.
func caveatIndex(d *models.Diagnostics) map[string]string {
	out := make(map[string]string)
	if d == nil {
		return out
	}
	for _, p := range d.SemanticOnlyPairs {
		out[p[0]+"\x00"+p[1]] = string(models.CaveatSemanticOnly)
	}
	for _, p := range d.StructuralOnlyPairs {
		out[p[0]+"\x00"+p[1]] = string(models.CaveatStructuralOnly)
	}
	return out
}

func writeDiagnosticsText(w io.Writer, d *models.Diagnostics) {
	if d == nil || d.Empty() {
		return
	}
	fmt.Fprintln(w)
	if len(d.Unparsed) > 0 {
		fmt.Fprintf(w, "Could not parse: %s\n", strings.Join(d.Unparsed, ", "))
	}
	if len(d.Unembedded) > 0 {
		fmt.Fprintf(w, "Could not embed: %s\n", strings.Join(d.Unembedded, ", "))
	}
	if d.PairsExcluded > 0 {
		fmt.Fprintf(w, "Pairs excluded (no usable signal): %d\n", d.PairsExcluded)
	}
}

// PrintDetectionReport prints a report to stdout in text format.
func PrintDetectionReport(report *models.DetectionReport) {
	_ = WriteDetectionReport(os.Stdout, report, OutputText)
}
