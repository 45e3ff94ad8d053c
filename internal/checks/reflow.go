package checks

import (
	"context"
	"fmt"

	"github.com/nao1215/pageaudit/internal/model"
)

const wcagReflow = "WCAG 2.1 Section 1.4.10 - Reflow"

// clippingOverflow lists overflow values that hide or scroll content.
var clippingOverflow = map[string]bool{"hidden": true, "scroll": true, "auto": true, "clip": true}

// ReflowCheck flags fixed-width elements that clip their content instead of
// reflowing at narrow viewports.
type ReflowCheck struct {
	meta
}

// NewReflowCheck creates the check.
func NewReflowCheck() *ReflowCheck {
	return &ReflowCheck{meta: meta{
		name:        model.AuditNameReflow,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryWCAG,
		scored:      true,
		rationale: "Content must reflow to a 320px viewport so zoomed users do not " +
			"scroll in two dimensions.",
	}}
}

// Execute implements Check.
func (c *ReflowCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	if _, err := parse(snapshot, record); err != nil {
		return nil, err
	}

	var issues []model.Issue
	for _, selector := range snapshot.SortedSelectors() {
		element := snapshot.Elements[selector]
		width := element.Style("width")
		if lengthUnit(width) != "px" {
			continue
		}

		overflow := element.Style("overflow-x")
		if overflow == "" {
			overflow = element.Style("overflow")
		}

		f := passed(nil, "Fixed width content is not clipped",
			fmt.Sprintf("The element is %s wide and its overflow is visible.", width), wcagReflow)
		if clippingOverflow[overflow] {
			f = failed(nil, model.PriorityMedium, "Fixed width content may not reflow",
				fmt.Sprintf("The element is %s wide with overflow %q, which hides content at narrow widths.", width, overflow),
				"Use relative widths or max-width so the content reflows instead of clipping.", wcagReflow)
		}
		f.selector = selector
		issues = append(issues, f.issue(c.category, "accessibility", "layout"))
	}
	return c.audit(snapshot, issues)
}
