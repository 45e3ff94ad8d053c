package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

// maxParagraphWords is the length above which a paragraph should be split.
const maxParagraphWords = 150

// ParagraphingCheck flags paragraphs too long to scan comfortably.
type ParagraphingCheck struct {
	meta
}

// NewParagraphingCheck creates the check.
func NewParagraphingCheck() *ParagraphingCheck {
	return &ParagraphingCheck{meta: meta{
		name:        model.AuditNameParagraphing,
		category:    model.CategoryContent,
		subcategory: model.SubcategoryUnknown,
		scored:      true,
		rationale:   "Short paragraphs are easier to scan on screens of every size.",
	}}
}

// Execute implements Check.
func (c *ParagraphingCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var issues []model.Issue
	for _, p := range doc.All("p") {
		words := len(strings.Fields(dom.Text(p)))
		if words == 0 {
			continue
		}
		f := passed(p, "Paragraph length is appropriate", fmt.Sprintf("The paragraph has %d words.", words), "")
		if words > maxParagraphWords {
			f = failed(p, model.PriorityLow, "Paragraph is too long",
				fmt.Sprintf("The paragraph has %d words, more than %d.", words, maxParagraphWords),
				"Split long paragraphs into shorter ones that each cover a single idea.", "")
		}
		issues = append(issues, f.issue(c.category, "content", "paragraphs"))
	}
	return c.audit(snapshot, issues)
}
