package checks

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

const wcagVisualPresentation = "WCAG 2.1 Section 1.4.8 - Visual Presentation"

// relativeFontUnits can be resized by the user agent.
var relativeFontUnits = map[string]bool{"em": true, "rem": true, "%": true}

// VisualPresentationCheck inspects inline styles for fixed color pairs,
// absolute font sizes and justified text.
type VisualPresentationCheck struct {
	meta
}

// NewVisualPresentationCheck creates the check.
func NewVisualPresentationCheck() *VisualPresentationCheck {
	return &VisualPresentationCheck{meta: meta{
		name:        model.AuditNameVisualPresentation,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryWCAG,
		scored:      true,
		rationale: "Readers need to override colors, resize text and avoid the uneven " +
			"word gaps of justified text.",
	}}
}

// Execute implements Check.
func (c *VisualPresentationCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var issues []model.Issue
	for _, n := range doc.All("[style]") {
		for _, f := range evaluatePresentation(n, ParseDeclarations(dom.Attr(n, "style"))) {
			issues = append(issues, f.issue(c.category, "accessibility", "visual_presentation"))
		}
	}
	return c.audit(snapshot, issues)
}

func evaluatePresentation(n *html.Node, decls map[string]string) []finding {
	var findings []finding

	if decls["color"] != "" && (decls["background-color"] != "" || decls["background"] != "") {
		findings = append(findings, failed(n, model.PriorityLow, "Foreground and background colors are fixed",
			"The element sets both text and background color inline, which user style sheets cannot easily override.",
			"Move colors into a style sheet so users can select their own foreground and background.",
			wcagVisualPresentation))
	}

	// Keyword sizes such as "small" or "inherit" are not lengths and are skipped.
	if size := decls["font-size"]; size != "" && isLength(size) {
		unit := lengthUnit(size)
		if relativeFontUnits[unit] {
			findings = append(findings, passed(n, "Font size is relative",
				fmt.Sprintf("The font size %s scales with user preferences.", size), wcagVisualPresentation))
		} else {
			findings = append(findings, failed(n, model.PriorityMedium, "Font size is absolute",
				fmt.Sprintf("The font size %s does not scale with user preferences.", size),
				"Use em, rem or percentage font sizes.", wcagVisualPresentation))
		}
	}

	if strings.EqualFold(decls["text-align"], "justify") {
		findings = append(findings, failed(n, model.PriorityLow, "Text is justified",
			"Justified text creates uneven gaps between words.",
			"Align text to one side instead of justifying it.", wcagVisualPresentation))
	}

	return findings
}
