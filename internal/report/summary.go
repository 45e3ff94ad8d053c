package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/pageaudit/internal/model"
)

// Finding is a failed issue together with the audit that raised it.
type Finding struct {
	Audit model.AuditName
	model.Issue
}

// Summary counts a report's issues by priority.
type Summary struct {
	High   int
	Medium int
	Low    int
	Passed int

	findings map[model.Priority][]Finding
}

// Summarize groups the failed issues of every audit in the report by
// priority. Informational audits contribute findings but not passes.
func Summarize(report *model.CompositeReport) Summary {
	s := Summary{findings: make(map[model.Priority][]Finding)}
	for _, audit := range report.Audits {
		for _, issue := range audit.Issues {
			if issue.Passed() {
				if audit.Scored {
					s.Passed++
				}
				continue
			}
			group := issue.Priority
			switch group {
			case model.PriorityHigh:
				s.High++
			case model.PriorityMedium:
				s.Medium++
			default:
				group = model.PriorityLow
				s.Low++
			}
			s.findings[group] = append(s.findings[group], Finding{Audit: audit.Name, Issue: issue})
		}
	}
	return s
}

// Failed returns the number of failed issues.
func (s Summary) Failed() int {
	return s.High + s.Medium + s.Low
}

// Findings returns the failed issues of priority p in report order.
func (s Summary) Findings(p model.Priority) []Finding {
	return s.findings[p]
}

// failurePriorities lists the priorities findings are grouped under, most
// urgent first. A failed issue without a priority is grouped as Low.
var failurePriorities = []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow}

var titleCaser = cases.Title(language.English)

// displayName turns an enum name such as INFORMATION_ARCHITECTURE into
// "Information Architecture".
func displayName(name string) string {
	return titleCaser.String(strings.ReplaceAll(strings.ToLower(name), "_", " "))
}

func formatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", *score*100)
}

func formatProgress(progress float64) string {
	return fmt.Sprintf("%.0f%%", progress*100)
}

func statusText(status model.ExecutionStatus) string {
	if status == model.StatusComplete {
		return "complete"
	}
	return "in progress"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString shortens s to at most maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
