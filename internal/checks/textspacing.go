package checks

import (
	"context"
	"fmt"

	"github.com/nao1215/pageaudit/internal/model"
)

const wcagTextSpacing = "WCAG 2.1 Section 1.4.12 - Text Spacing"

// spacingRule is a minimum ratio of a spacing property to the font size.
type spacingRule struct {
	property string
	label    string
	minRatio float64

	// multiplier marks properties whose unitless values scale the font size.
	multiplier bool
}

var spacingRules = []spacingRule{
	{property: "line-height", label: "Line height", minRatio: 1.5, multiplier: true},
	{property: "letter-spacing", label: "Letter spacing", minRatio: 0.12},
	{property: "word-spacing", label: "Word spacing", minRatio: 0.16},
	{property: "margin-bottom", label: "Paragraph spacing", minRatio: 2},
}

// TextSpacingCheck compares the computed spacing of every captured element
// against its font size.
type TextSpacingCheck struct {
	meta
}

// NewTextSpacingCheck creates the check.
func NewTextSpacingCheck() *TextSpacingCheck {
	return &TextSpacingCheck{meta: meta{
		name:        model.AuditNameTextSpacing,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryWCAG,
		scored:      true,
		rationale: "Users with low vision or dyslexia read tightly set text slower " +
			"and lose their place between lines.",
	}}
}

// Execute implements Check.
func (c *TextSpacingCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	if _, err := parse(snapshot, record); err != nil {
		return nil, err
	}

	var issues []model.Issue
	for _, selector := range snapshot.SortedSelectors() {
		element := snapshot.Elements[selector]
		for _, f := range evaluateSpacing(element) {
			f.selector = selector
			issues = append(issues, f.issue(c.category, "accessibility", "typography"))
		}
	}
	return c.audit(snapshot, issues)
}

// evaluateSpacing returns one failing finding per rule the element breaks,
// or a single passing finding when every measurable rule holds. Elements
// without a usable font size, or without any measurable spacing, yield nothing.
func evaluateSpacing(element model.ElementRecord) []finding {
	fontSize, ok := parseLength(element.Style("font-size"))
	if !ok || fontSize <= 0 {
		return nil
	}

	var (
		findings []finding
		measured int
	)
	for _, rule := range spacingRules {
		raw := element.Style(rule.property)
		value, ok := parseLength(raw)
		if !ok {
			continue
		}
		if rule.multiplier && lengthUnit(raw) == "" {
			value *= fontSize
		}
		measured++
		minimum := fontSize * rule.minRatio
		if value < minimum {
			findings = append(findings, failed(nil, model.PriorityMedium,
				rule.label+" is too small",
				fmt.Sprintf("%s is %.2fpx for a %.2fpx font; at least %.2fpx is required.", rule.label, value, fontSize, minimum),
				fmt.Sprintf("Set %s to at least %.2f times the font size.", rule.property, rule.minRatio),
				wcagTextSpacing))
		}
	}

	if measured == 0 || len(findings) > 0 {
		return findings
	}
	return []finding{passed(nil, "Text spacing is accessible",
		"Line, letter, word and paragraph spacing meet the minimum ratios to the font size.",
		wcagTextSpacing)}
}
