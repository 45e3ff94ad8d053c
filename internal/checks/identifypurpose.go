package checks

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

const wcagIdentifyPurpose = "WCAG 2.1 Section 1.3.6 - Identify Purpose"

// IdentifyPurposeCheck verifies that images, buttons and landmark regions
// expose a programmatic name.
type IdentifyPurposeCheck struct {
	meta
}

// NewIdentifyPurposeCheck creates the check.
func NewIdentifyPurposeCheck() *IdentifyPurposeCheck {
	return &IdentifyPurposeCheck{meta: meta{
		name:        model.AuditNameIdentifyPurpose,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryWCAG,
		scored:      true,
		rationale: "Components with a programmatic name can be announced, adapted and " +
			"personalized by assistive technology.",
	}}
}

// Execute implements Check.
func (c *IdentifyPurposeCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var findings []finding
	for _, img := range doc.All("img") {
		if strings.TrimSpace(dom.Attr(img, "alt")) == "" {
			findings = append(findings, failed(img, model.PriorityMedium, "Image purpose is not identified",
				"The image has no alt text describing its purpose.",
				"Add alt text that conveys the purpose of the image.", wcagIdentifyPurpose))
			continue
		}
		findings = append(findings, passed(img, "Image purpose is identified", "The image has alt text.", wcagIdentifyPurpose))
	}

	for _, button := range doc.All(`button, input[type="button"], input[type="submit"], [role="button"]`) {
		if buttonName(button) == "" {
			findings = append(findings, failed(button, model.PriorityHigh, "Button purpose is not identified",
				"The button has no text, value, aria-label or aria-labelledby.",
				"Give the button visible text or an aria-label describing its action.", wcagIdentifyPurpose))
			continue
		}
		findings = append(findings, passed(button, "Button purpose is identified", "The button has an accessible name.", wcagIdentifyPurpose))
	}

	for _, region := range doc.All(`div[role], section[role], nav[role], header[role], footer[role], aside[role]`) {
		if dom.Attr(region, "role") == "button" {
			continue
		}
		if !labeled(region) {
			findings = append(findings, failed(region, model.PriorityLow, "Region element with role attribute is missing aria-label or aria-labelledby",
				"The region declares role \""+dom.Attr(region, "role")+"\" but no label.",
				"Add aria-label or aria-labelledby so the region can be told apart from others.", wcagIdentifyPurpose))
			continue
		}
		findings = append(findings, passed(region, "Region purpose is identified", "The region has a role and a label.", wcagIdentifyPurpose))
	}

	issues := make([]model.Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, f.issue(c.category, "accessibility", "purpose"))
	}
	return c.audit(snapshot, issues)
}

func buttonName(n *html.Node) string {
	if text := dom.Text(n); text != "" {
		return text
	}
	for _, key := range []string{"value", "aria-label", "aria-labelledby", "title"} {
		if v := strings.TrimSpace(dom.Attr(n, key)); v != "" {
			return v
		}
	}
	return ""
}

func labeled(n *html.Node) bool {
	return strings.TrimSpace(dom.Attr(n, "aria-label")) != "" || strings.TrimSpace(dom.Attr(n, "aria-labelledby")) != ""
}
