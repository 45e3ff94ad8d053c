package checks

import (
	"context"
	"strings"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

const wcagNonTextContent = "WCAG 2.1 Section 1.1.1 - Non-text Content"

// AltTextCheck verifies that every image carries alternative text.
type AltTextCheck struct {
	meta
}

// NewAltTextCheck creates the check.
func NewAltTextCheck() *AltTextCheck {
	return &AltTextCheck{meta: meta{
		name:        model.AuditNameAltText,
		category:    model.CategoryContent,
		subcategory: model.SubcategoryWCAG,
		scored:      true,
		rationale:   "Alt text is the only way images reach users who cannot see them.",
	}}
}

// Execute implements Check.
func (c *AltTextCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var issues []model.Issue
	for _, img := range doc.All(`img, input[type="image"], area`) {
		var f finding
		switch {
		case !dom.HasAttr(img, "alt"):
			f = failed(img, model.PriorityHigh, "Image is missing alt text",
				"The "+img.Data+" element has no alt attribute.",
				`Add an alt attribute describing the image, or alt="" for decorative images.`, wcagNonTextContent)
		case strings.TrimSpace(dom.Attr(img, "alt")) == "":
			f = failed(img, model.PriorityMedium, "Image alt text is empty",
				"The alt attribute is empty, so the image is treated as decorative.",
				"Describe the image unless it is purely decorative.", wcagNonTextContent)
		default:
			f = passed(img, "Image has alt text", "The image is described as \""+dom.Attr(img, "alt")+"\".", wcagNonTextContent)
		}
		issues = append(issues, f.issue(c.category, "content", "images"))
	}
	return c.audit(snapshot, issues)
}
