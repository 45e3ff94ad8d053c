package checks

import (
	"context"
	"strconv"
	"strings"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

const wcagKeyboard = "WCAG 2.1 Section 2.1.1 - Keyboard"

// KeyboardAccessibleCheck flags scripted elements that cannot be reached
// with the keyboard and positive tab orders.
type KeyboardAccessibleCheck struct {
	meta
}

// NewKeyboardAccessibleCheck creates the check.
func NewKeyboardAccessibleCheck() *KeyboardAccessibleCheck {
	return &KeyboardAccessibleCheck{meta: meta{
		name:        model.AuditNameKeyboardAccessible,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryWCAG,
		scored:      true,
		rationale:   "Users who cannot use a mouse need to reach and operate every control.",
	}}
}

// Execute implements Check.
func (c *KeyboardAccessibleCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var findings []finding
	for _, n := range doc.All("[tabindex]") {
		index, err := strconv.Atoi(strings.TrimSpace(dom.Attr(n, "tabindex")))
		if err == nil && index > 0 {
			findings = append(findings, failed(n, model.PriorityMedium, "Positive tabindex",
				"A tabindex of "+strconv.Itoa(index)+" overrides the natural focus order.",
				`Use tabindex="0" and order the markup to match the visual order.`, wcagKeyboard))
		}
	}

	for _, n := range doc.All(`[onclick]:not(a):not(button):not(input):not(select):not(textarea)`) {
		if dom.HasAttr(n, "tabindex") && dom.Attr(n, "role") != "" {
			findings = append(findings, passed(n, "Element is keyboard accessible",
				"The scripted element is focusable and declares a role.", wcagKeyboard))
			continue
		}
		findings = append(findings, failed(n, model.PriorityHigh, "Element not keyboard accessible",
			"Element cannot be navigated to or interacted with using only a keyboard.",
			`Make the element focusable with tabindex="0", give it a role such as button and handle Enter and Space.`,
			wcagKeyboard))
	}

	issues := make([]model.Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, f.issue(c.category, "accessibility", "keyboard"))
	}
	return c.audit(snapshot, issues)
}
