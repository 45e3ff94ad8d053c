package checks

import (
	"context"
	"fmt"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

// listChildren are the elements allowed as direct children of ul and ol.
var listChildren = map[string]bool{"li": true, "script": true, "template": true}

// ListStructureCheck verifies that lists only contain list items.
type ListStructureCheck struct {
	meta
}

// NewListStructureCheck creates the check.
func NewListStructureCheck() *ListStructureCheck {
	return &ListStructureCheck{meta: meta{
		name:        model.AuditNameListStructure,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryStructure,
		scored:      true,
		rationale:   "Screen readers announce list length and position from the list items.",
	}}
}

// Execute implements Check.
func (c *ListStructureCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var issues []model.Issue
	for _, list := range doc.All("ul, ol") {
		var stray []string
		for _, child := range dom.ElementChildren(list) {
			if !listChildren[child.Data] {
				stray = append(stray, child.Data)
			}
		}
		f := passed(list, "List is structured correctly", "Every child of the list is a list item.", wcagInfoRelationships)
		if len(stray) > 0 {
			f = failed(list, model.PriorityMedium, "List contains non list items",
				fmt.Sprintf("The %s element has children that are not <li>: %v.", list.Data, stray),
				"Wrap list content in <li> elements.", wcagInfoRelationships)
		}
		issues = append(issues, f.issue(c.category, "accessibility", "lists"))
	}
	return c.audit(snapshot, issues)
}
