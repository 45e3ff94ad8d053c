package checks

import (
	"context"
	"fmt"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/headings"
	"github.com/nao1215/pageaudit/internal/model"
)

const wcagInfoRelationships = "WCAG 2.1 Section 1.3.1 - Info and Relationships"

// HeaderStructureCheck verifies that the page has a single h1 and that
// headings under each structural block descend one level at a time.
type HeaderStructureCheck struct {
	meta
}

// NewHeaderStructureCheck creates the check.
func NewHeaderStructureCheck() *HeaderStructureCheck {
	return &HeaderStructureCheck{meta: meta{
		name:        model.AuditNameHeaderStructure,
		category:    model.CategoryInformationArchitecture,
		subcategory: model.SubcategorySEO,
		scored:      true,
		rationale: "A consistent heading hierarchy is the outline screen reader users " +
			"navigate by; skipped levels and missing titles hide the page structure.",
	}}
}

// Execute implements Check.
func (c *HeaderStructureCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	count, err := headings.CountLevel1(doc)
	if err != nil {
		return nil, err
	}
	issues := []model.Issue{level1Finding(doc, count).issue(c.category, "accessibility", "headings")}

	groups, err := headings.GroupByAncestor(doc)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		skips := g.SkippedLevels()
		if len(skips) == 0 {
			f := passed(g.Ancestor, "Headings are in hierarchical order",
				fmt.Sprintf("%d heading(s) under this element descend one level at a time.", len(g.Headings)),
				wcagInfoRelationships)
			issues = append(issues, f.issue(c.category, "accessibility", "headings"))
			continue
		}
		for _, s := range skips {
			f := failed(s.Heading, model.PriorityMedium, "Heading level skipped",
				fmt.Sprintf("An h%d follows an h%d (%q) without the levels in between.", s.To, s.From, dom.Text(s.Previous)),
				fmt.Sprintf("Use an h%d here or add the missing intermediate headings.", s.From+1),
				wcagInfoRelationships)
			issues = append(issues, f.issue(c.category, "accessibility", "headings"))
		}
	}

	return c.audit(snapshot, issues)
}

func level1Finding(doc *dom.Document, count headings.Level1Count) finding {
	const recommendation = "Give the page exactly one h1 that describes its main content."
	switch count {
	case headings.ExactlyOne:
		f := passed(doc.First("h1"), "Page has a single h1", "The page has exactly one top-level heading.", wcagInfoRelationships)
		f.awarded, f.max = 2, 2
		return f
	case headings.Multiple:
		f := failed(doc.First("h1"), model.PriorityMedium, "Page has multiple h1 headings",
			"More than one top-level heading makes the main topic of the page ambiguous.",
			recommendation, wcagInfoRelationships)
		f.awarded, f.max = 1, 2
		return f
	default:
		f := failed(nil, model.PriorityHigh, "Page is missing an h1 heading",
			"The page has no top-level heading.", recommendation, wcagInfoRelationships)
		f.selector = dom.ContainerTag
		f.awarded, f.max = 0, 2
		return f
	}
}

// TitlesCheck verifies the page title and favicon.
type TitlesCheck struct {
	meta
}

// NewTitlesCheck creates the check.
func NewTitlesCheck() *TitlesCheck {
	return &TitlesCheck{meta: meta{
		name:        model.AuditNameTitles,
		category:    model.CategoryInformationArchitecture,
		subcategory: model.SubcategorySEO,
		scored:      true,
		rationale: "The title and favicon identify the page in tabs, bookmarks and " +
			"search results.",
	}}
}

// Execute implements Check.
func (c *TitlesCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	const wcagTitled = "WCAG 2.1 Section 2.4.2 - Page Titled"
	var findings []finding

	if title := doc.Title(); title != "" {
		findings = append(findings, passed(doc.First("title"), "Page has a title", "The page title is \""+title+"\".", wcagTitled))
	} else {
		findings = append(findings, failed(doc.First("head"), model.PriorityHigh, "Page is missing a title",
			"The page has no title or the title is empty.",
			"Add a title element describing the page.", wcagTitled))
	}

	if icon := doc.First(`link[rel~="icon"]`); icon != nil && dom.Attr(icon, "href") != "" {
		findings = append(findings, passed(icon, "Favicon is present", "The page declares a favicon.", ""))
	} else {
		findings = append(findings, failed(doc.First("head"), model.PriorityLow, "Favicon is missing",
			"The page does not declare a favicon.",
			`Add <link rel="icon" href="..."> to the head.`, ""))
	}

	issues := make([]model.Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, f.issue(c.category, "information_architecture", "seo"))
	}
	return c.audit(snapshot, issues)
}
