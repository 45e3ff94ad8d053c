package checks

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

const (
	titleMinLength       = 50
	titleMaxLength       = 60
	descriptionMinLength = 120
	descriptionMaxLength = 150
)

// MetadataCheck scores the title length, the meta description and the
// absence of timed refreshes.
type MetadataCheck struct {
	meta
}

// NewMetadataCheck creates the check.
func NewMetadataCheck() *MetadataCheck {
	return &MetadataCheck{meta: meta{
		name:        model.AuditNameMetadata,
		category:    model.CategoryInformationArchitecture,
		subcategory: model.SubcategorySEO,
		scored:      true,
		rationale: "Search engines show the title and description in results; " +
			"automatic refreshes disorient users who did not ask for them.",
	}}
}

// Execute implements Check.
func (c *MetadataCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	findings := []finding{titleLength(doc.First("title"), doc.Title())}
	findings = append(findings, description(doc.All(`meta[name="description" i]`))...)
	findings = append(findings, refresh(doc.All(`meta[http-equiv="refresh" i], meta[name="refresh" i]`))...)

	issues := make([]model.Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, f.issue(c.category, "information_architecture", "seo"))
	}
	return c.audit(snapshot, issues)
}

func titleLength(n *html.Node, title string) finding {
	length := utf8.RuneCountInString(title)
	if length >= titleMinLength && length <= titleMaxLength {
		return passed(n, "Title length is optimal",
			fmt.Sprintf("The title is %d characters long.", length), "")
	}
	return failed(n, model.PriorityLow, "Title length is not optimal",
		fmt.Sprintf("The title is %d characters long.", length),
		fmt.Sprintf("Keep the title between %d and %d characters.", titleMinLength, titleMaxLength), "")
}

func description(metas []*html.Node) []finding {
	if len(metas) == 0 {
		return []finding{failed(nil, model.PriorityMedium, "Meta description is missing",
			"The page has no meta description.",
			`Add <meta name="description" content="..."> summarizing the page.`, "")}
	}

	var findings []finding
	if len(metas) > 1 {
		findings = append(findings, failed(metas[1], model.PriorityLow, "Multiple meta descriptions",
			fmt.Sprintf("The page declares %d meta descriptions.", len(metas)),
			"Keep a single meta description.", ""))
	}

	content := strings.TrimSpace(dom.Attr(metas[0], "content"))
	if content == "" {
		return append(findings, failed(metas[0], model.PriorityMedium, "Meta description is empty",
			"The meta description has no content.",
			"Fill the content attribute with a summary of the page.", ""))
	}
	findings = append(findings, passed(metas[0], "Meta description is present", "The page declares a meta description.", ""))

	length := utf8.RuneCountInString(content)
	if length >= descriptionMinLength && length <= descriptionMaxLength {
		return append(findings, passed(metas[0], "Meta description length is optimal",
			fmt.Sprintf("The meta description is %d characters long.", length), ""))
	}
	return append(findings, failed(metas[0], model.PriorityLow, "Meta description length is not optimal",
		fmt.Sprintf("The meta description is %d characters long.", length),
		fmt.Sprintf("Keep the meta description between %d and %d characters.", descriptionMinLength, descriptionMaxLength), ""))
}

func refresh(metas []*html.Node) []finding {
	const wcagTimingAdjustable = "WCAG 2.1 Section 2.2.1 - Timing Adjustable"
	if len(metas) == 0 {
		return []finding{passed(nil, "Page does not refresh automatically", "No meta refresh was found.", wcagTimingAdjustable)}
	}
	findings := make([]finding, 0, len(metas))
	for _, m := range metas {
		findings = append(findings, failed(m, model.PriorityMedium, "Page refreshes automatically",
			fmt.Sprintf("A meta refresh with content %q reloads or redirects the page.", dom.Attr(m, "content")),
			"Remove the meta refresh and use a server-side redirect instead.", wcagTimingAdjustable))
	}
	return findings
}
