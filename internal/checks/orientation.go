package checks

import (
	"context"
	"strings"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

const wcagOrientation = "WCAG 2.1 Section 1.3.4 - Orientation"

// OrientationCheck flags style rules and viewport settings that lock the
// page to portrait or landscape.
type OrientationCheck struct {
	meta
}

// NewOrientationCheck creates the check.
func NewOrientationCheck() *OrientationCheck {
	return &OrientationCheck{meta: meta{
		name:        model.AuditNameOrientation,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryWCAG,
		scored:      true,
		rationale:   "Users with mounted devices cannot rotate them to match a locked orientation.",
	}}
}

// Execute implements Check.
func (c *OrientationCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var findings []finding
	for _, style := range doc.All("style") {
		for _, feature := range mediaFeatures(dom.RawText(style)) {
			if !strings.HasPrefix(feature, "orientation:") {
				continue
			}
			findings = append(findings, failed(style, model.PriorityMedium, "Orientation media query found",
				"A style block targets "+feature+", which may restrict content to one orientation.",
				"Make sure content stays usable in both portrait and landscape.", wcagOrientation))
		}
	}
	for _, viewport := range doc.All(`meta[name="viewport" i]`) {
		if strings.Contains(strings.ToLower(dom.Attr(viewport, "content")), "orientation") {
			findings = append(findings, failed(viewport, model.PriorityMedium, "Viewport restricts orientation",
				"The viewport meta tag sets an orientation.",
				"Remove the orientation setting from the viewport meta tag.", wcagOrientation))
		}
	}
	if len(findings) == 0 {
		findings = append(findings, passed(nil, "Orientation is not restricted",
			"No style rule or viewport setting locks the page orientation.", wcagOrientation))
	}

	issues := make([]model.Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, f.issue(c.category, "accessibility", "orientation"))
	}
	return c.audit(snapshot, issues)
}
