package checks

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

const wcagLabelsOrInstructions = "WCAG 2.1 Section 3.3.2 - Labels or Instructions"

// formControls selects controls a user types into or picks from.
const formControls = `input:not([type="hidden"]):not([type="submit"]):not([type="button"]):not([type="reset"]):not([type="image"]), select, textarea`

// FormStructureCheck verifies that form controls are labeled and that radio
// and checkbox groups sit in a fieldset with a legend.
type FormStructureCheck struct {
	meta
}

// NewFormStructureCheck creates the check.
func NewFormStructureCheck() *FormStructureCheck {
	return &FormStructureCheck{meta: meta{
		name:        model.AuditNameFormStructure,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryStructure,
		scored:      true,
		rationale: "Grouping and labeling form controls lets assistive technology " +
			"announce what each control is for and which controls belong together.",
	}}
}

// Execute implements Check.
func (c *FormStructureCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	targets := labelTargets(doc)
	var findings []finding
	for _, form := range doc.All("form") {
		for _, control := range dom.QueryAll(form, formControls) {
			findings = append(findings, controlLabel(control, targets))
		}
		findings = append(findings, fieldsets(form)...)
	}

	issues := make([]model.Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, f.issue(c.category, "accessibility", "forms"))
	}
	return c.audit(snapshot, issues)
}

func controlLabel(control *html.Node, targets map[string]bool) finding {
	name := accessibleLabel(control, targets)
	if name == "" {
		return failed(control, model.PriorityHigh, "Form control is missing label",
			fmt.Sprintf("The %s control has no associated label, aria-label or aria-labelledby attribute.", control.Data),
			"Add a <label> element associated with the control, or an aria-label or aria-labelledby attribute.",
			wcagLabelsOrInstructions)
	}
	return passed(control, "Form control has associated label",
		"The form control is labeled by: "+name, wcagLabelsOrInstructions)
}

// fieldsets checks radio and checkbox groups and every fieldset's legend.
func fieldsets(form *html.Node) []finding {
	var findings []finding
	for _, fs := range dom.QueryAll(form, "fieldset") {
		legend := dom.Query(fs, "legend")
		if legend == nil || dom.Text(legend) == "" {
			findings = append(findings, failed(fs, model.PriorityMedium, "Fieldset is missing a legend",
				"The fieldset has no legend describing the group.",
				"Add a <legend> as the first child of the fieldset.", wcagLabelsOrInstructions))
			continue
		}
		findings = append(findings, passed(fs, "Fieldset has a legend", "The group is described as \""+dom.Text(legend)+"\".", wcagLabelsOrInstructions))
	}

	grouped := make(map[string]bool)
	for _, input := range dom.QueryAll(form, `input[type="radio"], input[type="checkbox"]`) {
		name := dom.Attr(input, "name")
		if name == "" || grouped[name] {
			continue
		}
		grouped[name] = true
		if insideFieldset(input, form) {
			continue
		}
		findings = append(findings, failed(input, model.PriorityMedium, "Option group is not in a fieldset",
			fmt.Sprintf("The %s group %q is not grouped with a fieldset.", dom.Attr(input, "type"), name),
			"Wrap related radio buttons or checkboxes in a <fieldset> with a <legend>.", wcagLabelsOrInstructions))
	}
	return findings
}

func insideFieldset(n, stop *html.Node) bool {
	for p := n.Parent; p != nil && p != stop; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "fieldset" {
			return true
		}
	}
	return false
}

// labelTargets collects the ids referenced by label[for] on the page.
func labelTargets(doc *dom.Document) map[string]bool {
	targets := make(map[string]bool)
	for _, label := range doc.All("label[for]") {
		if id := strings.TrimSpace(dom.Attr(label, "for")); id != "" && dom.Text(label) != "" {
			targets[id] = true
		}
	}
	return targets
}

// accessibleLabel returns how a control is labeled, or "" if it is not.
func accessibleLabel(control *html.Node, targets map[string]bool) string {
	if id := dom.Attr(control, "id"); id != "" && targets[id] {
		return "label[for=" + id + "]"
	}
	if label := strings.TrimSpace(dom.Attr(control, "aria-label")); label != "" {
		return label
	}
	if ref := strings.TrimSpace(dom.Attr(control, "aria-labelledby")); ref != "" {
		return "aria-labelledby=" + ref
	}
	for p := control.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "label" {
			if text := dom.Text(p); text != "" {
				return text
			}
		}
	}
	return ""
}
