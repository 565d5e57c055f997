// Package formatter renders unit results and their diagnostics for the
// terminal.
package formatter

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	tt "github.com/gnoverse/canopy/internal/types"
)

const tabWidth = 8

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	warningStyle = color.New(color.FgHiYellow, color.Bold)
	infoStyle    = color.New(color.FgHiBlue)
	passStyle    = color.New(color.FgYellow, color.Bold)
	unitStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
	successStyle = color.New(color.FgGreen, color.Bold)
)

// Generate formats a slice of unit results into a human-readable
// report: one block per unit, each diagnostic with a source snippet,
// and a closing summary.
func Generate(results []tt.UnitResult) string {
	var builder strings.Builder
	for _, result := range results {
		builder.WriteString(formatUnitHeader(result))
		lines := strings.Split(result.OriginalSource, "\n")
		for _, diag := range result.Diagnostics {
			builder.WriteString(formatDiagnostic(diag, lines))
		}
		builder.WriteString("\n")
	}
	builder.WriteString(formatSummary(results))
	return builder.String()
}

// formatUnitHeader creates a formatted header for one unit.
// (e.g. "unit: example.py [Success] 5 passes")
func formatUnitHeader(result tt.UnitResult) string {
	var status string
	switch result.Status {
	case tt.StatusSuccess:
		status = successStyle.Sprintf("[%s]", result.Status)
	case tt.StatusAborted:
		status = errorStyle.Sprintf("[%s]", result.Status)
	default:
		status = errorStyle.Sprintf("[%s]", result.Status)
	}
	return unitStyle.Sprintf("unit: %s ", result.ID) + status +
		lineStyle.Sprintf(" %d passes applied\n", len(result.PassesApplied))
}

func formatDiagnostic(diag tt.Diagnostic, sourceLines []string) string {
	var builder strings.Builder

	switch diag.Severity {
	case tt.SeverityFatal:
		builder.WriteString(errorStyle.Sprint("error: "))
	case tt.SeverityWarning:
		builder.WriteString(warningStyle.Sprint("warning: "))
	default:
		builder.WriteString(infoStyle.Sprint("info: "))
	}
	builder.WriteString(passStyle.Sprintf("%s\n", diag.Pass))

	if !diag.Pos.IsValid() || diag.Pos.Line > len(sourceLines) {
		builder.WriteString(lineStyle.Sprint(" = "))
		builder.WriteString(messageStyle.Sprintf("%s\n", diag.Message))
		return builder.String()
	}

	maxLineNumWidth := calculateMaxLineNumWidth(diag.Pos.Line)
	padding := strings.Repeat(" ", maxLineNumWidth+1)

	builder.WriteString(lineStyle.Sprintf("%s--> ", strings.Repeat(" ", maxLineNumWidth)))
	builder.WriteString(unitStyle.Sprintf("%s:%d:%d\n", diag.UnitID, diag.Pos.Line, diag.Pos.Col))

	line := sourceLines[diag.Pos.Line-1]
	builder.WriteString(lineStyle.Sprintf("%s|\n", padding))
	builder.WriteString(lineStyle.Sprintf("%*d | ", maxLineNumWidth, diag.Pos.Line))
	builder.WriteString(fmt.Sprintf("%s\n", line))

	caret := calculateVisualColumn(line, diag.Pos.Col)
	builder.WriteString(lineStyle.Sprintf("%s| ", padding))
	builder.WriteString(strings.Repeat(" ", caret))
	builder.WriteString(messageStyle.Sprint("^\n"))

	builder.WriteString(lineStyle.Sprintf("%s= ", padding))
	builder.WriteString(messageStyle.Sprintf("%s\n", diag.Message))
	return builder.String()
}

func formatSummary(results []tt.UnitResult) string {
	var succeeded, aborted, parseFailed int
	for _, result := range results {
		switch result.Status {
		case tt.StatusSuccess:
			succeeded++
		case tt.StatusAborted:
			aborted++
		case tt.StatusParseFail:
			parseFailed++
		}
	}
	summary := fmt.Sprintf("%d units: ", len(results))
	summary += successStyle.Sprintf("%d succeeded", succeeded)
	if aborted > 0 {
		summary += ", " + errorStyle.Sprintf("%d aborted", aborted)
	}
	if parseFailed > 0 {
		summary += ", " + errorStyle.Sprintf("%d failed to parse", parseFailed)
	}
	return summary + "\n"
}

func calculateMaxLineNumWidth(endLine int) int {
	return len(fmt.Sprintf("%d", endLine))
}

// calculateVisualColumn calculates the visual column position
// in a string, taking into account tab characters.
func calculateVisualColumn(line string, column int) int {
	if column < 0 {
		return 0
	}
	visualColumn := 0
	for i, ch := range line {
		if i+1 == column {
			break
		}
		if ch == '\t' {
			visualColumn += tabWidth - (visualColumn % tabWidth)
		} else {
			visualColumn++
		}
	}
	return visualColumn
}
