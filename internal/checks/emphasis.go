package checks

import (
	"context"
	"strings"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

// EmphasisCheck flags presentational emphasis tags and abbreviations
// without an expansion.
type EmphasisCheck struct {
	meta
}

// NewEmphasisCheck creates the check.
func NewEmphasisCheck() *EmphasisCheck {
	return &EmphasisCheck{meta: meta{
		name:        model.AuditNameEmphasis,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryStructure,
		scored:      true,
		rationale: "Semantic emphasis and expanded abbreviations are conveyed to " +
			"assistive technology; purely visual styling is not.",
	}}
}

// Execute implements Check.
func (c *EmphasisCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var findings []finding
	for _, n := range doc.All("b, i") {
		semantic := map[string]string{"b": "strong", "i": "em"}[n.Data]
		findings = append(findings, failed(n, model.PriorityLow, "Presentational emphasis used",
			"The <"+n.Data+"> element conveys emphasis visually only.",
			"Use <"+semantic+"> when the text is meant to be emphasized.", wcagInfoRelationships))
	}
	for _, abbr := range doc.All("abbr") {
		if strings.TrimSpace(dom.Attr(abbr, "title")) == "" {
			findings = append(findings, failed(abbr, model.PriorityLow, "Abbreviation is not expanded",
				"The abbreviation \""+dom.Text(abbr)+"\" has no title.",
				"Add a title attribute with the full form of the abbreviation.", wcagInfoRelationships))
			continue
		}
		findings = append(findings, passed(abbr, "Abbreviation is expanded", "The abbreviation has a title.", wcagInfoRelationships))
	}
	for _, n := range doc.All("strong, em, code, blockquote") {
		if dom.Text(n) == "" {
			findings = append(findings, failed(n, model.PriorityLow, "Empty semantic element",
				"The <"+n.Data+"> element has no content.",
				"Remove empty semantic elements.", wcagInfoRelationships))
			continue
		}
		findings = append(findings, passed(n, "Semantic element used", "The <"+n.Data+"> element marks up its content.", wcagInfoRelationships))
	}

	issues := make([]model.Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, f.issue(c.category, "accessibility", "emphasis"))
	}
	return c.audit(snapshot, issues)
}
