// Package report renders analysis results for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/naka-gawa/github-census/internal/domain"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	keyColor     = color.New(color.FgWhite)
	valueColor   = color.New(color.FgGreen)
	missingColor = color.New(color.FgHiBlack)
	warnColor    = color.New(color.FgYellow)
)

// Summary describes the data an analysis ran on.
type Summary struct {
	Users    int
	Repos    int
	Failures []string
}

// PrintText writes a human-readable report.
func PrintText(w io.Writer, summary Summary, result *domain.AnalysisResult) {
	headerColor.Fprintln(w, "DATASET")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "%s %d\n", keyColor.Sprint("Users:"), summary.Users)
	fmt.Fprintf(w, "%s %d\n", keyColor.Sprint("Repositories:"), summary.Repos)
	if len(summary.Failures) > 0 {
		warnColor.Fprintf(w, "%d request(s) failed; results may be partial:\n", len(summary.Failures))
		for _, f := range summary.Failures {
			warnColor.Fprintf(w, "  - %s\n", f)
		}
	}
	fmt.Fprintln(w)

	headerColor.Fprintln(w, "STATISTICS")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	entries := result.Entries()
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Name))
	}
	for _, e := range entries {
		key := keyColor.Sprintf("%-*s", width+1, e.Name+":")
		switch e.Value {
		case "", domain.NotAvailable, "NaN":
			value := e.Value
			if value == "" {
				value = "(none)"
			}
			fmt.Fprintf(w, "%s %s\n", key, missingColor.Sprint(value))
		default:
			fmt.Fprintf(w, "%s %s\n", key, valueColor.Sprint(e.Value))
		}
	}
}

type jsonReport struct {
	Users      int                    `json:"users"`
	Repos      int                    `json:"repositories"`
	Failures   []string               `json:"failures,omitempty"`
	Statistics *domain.AnalysisResult `json:"statistics"`
}

// PrintJSON writes the report as indented JSON.
func PrintJSON(w io.Writer, summary Summary, result *domain.AnalysisResult) error {
	data, err := json.MarshalIndent(jsonReport{
		Users:      summary.Users,
		Repos:      summary.Repos,
		Failures:   summary.Failures,
		Statistics: result,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
