package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/pageaudit/internal/model"
)

// MarkdownWriter outputs reports as GitHub-flavored Markdown, suitable for
// pull request comments and documentation.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CompositeReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := Summarize(report)

	w.writeHeader(md, report)
	w.writeCategories(md, report)
	w.writeSummary(md, summary)
	w.writeFindings(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CompositeReport) {
	md.H1("PageAudit Report")
	md.PlainText("")

	status := "✅ Complete"
	if report.Status != model.StatusComplete {
		status = "⏳ In progress"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + report.URL + "`"},
			{"Record", "`" + report.RecordID + "`"},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Status", status},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCategories(md *markdown.Markdown, report *model.CompositeReport) {
	md.H2("Category Scores")
	md.PlainText("")

	if len(report.Categories) == 0 {
		md.PlainText("No categories tracked.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Categories))
	for _, c := range report.Categories {
		rows = append(rows, []string{
			displayName(c.Category.String()),
			formatScore(c.Score),
			formatProgress(c.Progress),
			strconv.Itoa(c.PointsAwarded) + " / " + strconv.Itoa(c.PointsMax),
			strconv.Itoa(len(c.CompletedChecks)) + " / " + strconv.Itoa(len(c.ExpectedChecks)),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Score", "Progress", "Points", "Checks"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary Summary) {
	md.H2("Issue Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Priority", "Count"},
		Rows: [][]string{
			{"🔴 High", strconv.Itoa(summary.High)},
			{"🟡 Medium", strconv.Itoa(summary.Medium)},
			{"🔵 Low", strconv.Itoa(summary.Low)},
			{"🟢 Passed", strconv.Itoa(summary.Passed)},
			{"**Failed**", "**" + strconv.Itoa(summary.Failed()) + "**"},
		},
	})
	md.PlainText("")

	if summary.Failed()+summary.Passed > 0 {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, summary)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issue Priority Distribution"),
		piechart.WithShowData(true),
	)

	parts := []struct {
		label string
		count int
	}{
		{"High", summary.High},
		{"Medium", summary.Medium},
		{"Low", summary.Low},
		{"Passed", summary.Passed},
	}
	for _, s := range parts {
		if s.count > 0 {
			chart.LabelAndIntValue(s.label, uint64(s.count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary Summary) {
	switch {
	case summary.High > 0:
		md.Cautionf("%d high priority issue(s) block users of assistive technology.", summary.High)
	case summary.Medium > 0:
		md.Warningf("%d medium priority issue(s) degrade usability for some users.", summary.Medium)
	case summary.Low > 0:
		md.Note("Only low priority issues detected.")
	default:
		md.Tip("No accessibility issues detected.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, summary Summary) {
	md.H2("Findings")
	md.PlainText("")

	if summary.Failed() == 0 {
		md.PlainText("All checks passed.")
		md.PlainText("")
		return
	}

	headers := map[model.Priority]string{
		model.PriorityHigh:   "### 🔴 High",
		model.PriorityMedium: "### 🟡 Medium",
		model.PriorityLow:    "### 🔵 Low",
	}
	for _, p := range failurePriorities {
		findings := summary.Findings(p)
		if len(findings) == 0 {
			continue
		}
		md.PlainText(headers[p])
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{
			f.Title,
			displayName(f.Audit.String()),
			"`" + truncateString(orDash(f.Selector), 50) + "`",
			truncateString(orDash(f.Recommendation), 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "Check", "Selector", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Description == "" {
			continue
		}
		body := f.Description
		if f.ComplianceRef != "" {
			body += "\n\n" + f.ComplianceRef
		}
		md.Details(f.Title, body)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pageaudit](https://github.com/nao1215/pageaudit)*")
}
