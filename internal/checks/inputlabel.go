package checks

import (
	"context"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

// InputLabelCheck verifies that every control with an id has a visible
// label[for] pointing at it. Unlike FORM_STRUCTURE it ignores aria labels,
// which are invisible to sighted users.
type InputLabelCheck struct {
	meta
}

// NewInputLabelCheck creates the check.
func NewInputLabelCheck() *InputLabelCheck {
	return &InputLabelCheck{meta: meta{
		name:        model.AuditNameInputLabel,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryWCAG,
		scored:      true,
		rationale:   "Visible labels tell every user what a field expects before they type.",
	}}
}

// Execute implements Check.
func (c *InputLabelCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	targets := labelTargets(doc)
	var issues []model.Issue
	for _, control := range doc.All(formControls) {
		f := passed(control, "Label exists for input element", "A visible label is associated with the control.", wcagLabelsOrInstructions)
		if id := dom.Attr(control, "id"); id == "" || !targets[id] {
			f = failed(control, model.PriorityHigh, "Missing label for input",
				"No label element references this control.",
				`Give the control an id and add <label for="that-id"> with a visible description.`,
				wcagLabelsOrInstructions)
		}
		issues = append(issues, f.issue(c.category, "accessibility", "forms"))
	}
	return c.audit(snapshot, issues)
}
