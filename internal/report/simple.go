package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pageaudit/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports using plain ASCII
// formatting so output can be piped to files unchanged.
type SimpleWriter struct {
	baseWriter

	// showEmpty prints priority groups that have no findings.
	showEmpty bool

	// verbose adds issue descriptions and compliance references.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CompositeReport) (int, error) {
	var sb strings.Builder
	summary := Summarize(report)

	w.writeHeader(&sb, report)
	w.writeCategories(&sb, report)
	w.writeSummary(&sb, summary)
	w.writeFindings(&sb, summary)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CompositeReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                         PAGEAUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "URL:        %s\n", report.URL)
	fmt.Fprintf(sb, "Record:     %s\n", report.RecordID)
	fmt.Fprintf(sb, "Generated:  %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Status:     %s\n", statusText(report.Status))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCategories(sb *strings.Builder, report *model.CompositeReport) {
	section(sb, "CATEGORY SCORES")

	if len(report.Categories) == 0 {
		sb.WriteString("  No categories tracked\n\n")
		return
	}
	for _, c := range report.Categories {
		fmt.Fprintf(sb, "  %-26s score %5s  progress %4s  (%d/%d points)\n",
			displayName(c.Category.String()),
			formatScore(c.Score),
			formatProgress(c.Progress),
			c.PointsAwarded,
			c.PointsMax,
		)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary Summary) {
	section(sb, "ISSUE SUMMARY")

	fmt.Fprintf(sb, "  HIGH:     %d\n", summary.High)
	fmt.Fprintf(sb, "  MEDIUM:   %d\n", summary.Medium)
	fmt.Fprintf(sb, "  LOW:      %d\n", summary.Low)
	fmt.Fprintf(sb, "  PASSED:   %d\n", summary.Passed)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d failed\n", summary.Failed())
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFindings(sb *strings.Builder, summary Summary) {
	if summary.Failed() == 0 && !w.showEmpty {
		return
	}
	section(sb, "FINDINGS")

	for _, p := range failurePriorities {
		findings := summary.Findings(p)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}
		w.writeFindingsForPriority(sb, p, findings)
	}
}

func (w *SimpleWriter) writeFindingsForPriority(sb *strings.Builder, p model.Priority, findings []Finding) {
	fmt.Fprintf(sb, "[%s] %s\n", priorityIndicator(p), p.String())

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}
	for _, f := range findings {
		fmt.Fprintf(sb, "  * %s (%s)\n", f.Title, f.Audit.String())
		if f.Selector != "" {
			fmt.Fprintf(sb, "    Selector: %s\n", f.Selector)
		}
		if f.Recommendation != "" {
			fmt.Fprintf(sb, "    Fix: %s\n", f.Recommendation)
		}
		if w.verbose {
			if f.Description != "" {
				fmt.Fprintf(sb, "    Description: %s\n", f.Description)
			}
			if f.ComplianceRef != "" {
				fmt.Fprintf(sb, "    Reference: %s\n", f.ComplianceRef)
			}
		}
	}
	sb.WriteString("\n")
}

func priorityIndicator(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "!!"
	case model.PriorityMedium:
		return "!"
	case model.PriorityLow:
		return "-"
	default:
		return "?"
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by pageaudit\n")
	sb.WriteString("https://github.com/nao1215/pageaudit\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
