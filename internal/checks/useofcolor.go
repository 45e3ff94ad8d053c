package checks

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

const wcagUseOfColor = "WCAG 2.1 Section 1.4.1 - Use of Color"

// UseOfColorCheck flags colored elements that carry no text alternative, so
// their meaning depends on color alone.
type UseOfColorCheck struct {
	meta
}

// NewUseOfColorCheck creates the check.
func NewUseOfColorCheck() *UseOfColorCheck {
	return &UseOfColorCheck{meta: meta{
		name:        model.AuditNameUseOfColor,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryWCAG,
		scored:      true,
		rationale:   "Information conveyed only by color is lost to color blind users.",
	}}
}

// Execute implements Check.
func (c *UseOfColorCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var issues []model.Issue
	for _, n := range doc.All("[style], [bgcolor], font[color]") {
		if !usesColor(n) {
			continue
		}
		f := passed(n, "Color is accompanied by text", "The colored element also carries text or a label.", wcagUseOfColor)
		if !hasTextAlternative(n) {
			f = failed(n, model.PriorityMedium, "Color is the only visual means of conveying information",
				"The element is styled with color but has no text, label or alt text.",
				"Add text, an aria-label or an icon so the information does not rely on color.", wcagUseOfColor)
		}
		issues = append(issues, f.issue(c.category, "accessibility", "color"))
	}
	return c.audit(snapshot, issues)
}

func usesColor(n *html.Node) bool {
	if dom.HasAttr(n, "bgcolor") || (n.Data == "font" && dom.HasAttr(n, "color")) {
		return true
	}
	decls := ParseDeclarations(dom.Attr(n, "style"))
	for _, property := range []string{"color", "background-color", "background"} {
		if decls[property] != "" {
			return true
		}
	}
	return false
}

func hasTextAlternative(n *html.Node) bool {
	if dom.Text(n) != "" {
		return true
	}
	for _, key := range []string{"aria-label", "aria-labelledby", "alt", "title"} {
		if strings.TrimSpace(dom.Attr(n, key)) != "" {
			return true
		}
	}
	return false
}
