package checks

import (
	"context"

	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/tables"
)

// TableStructureCheck validates header cells and headers references of
// every table on the page.
type TableStructureCheck struct {
	meta
}

// NewTableStructureCheck creates the check.
func NewTableStructureCheck() *TableStructureCheck {
	return &TableStructureCheck{meta: meta{
		name:        model.AuditNameTableStructure,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryStructure,
		scored:      true,
		rationale: "Screen readers announce data cells together with their headers only " +
			"when the table marks up that relationship.",
	}}
}

// Execute implements Check.
func (c *TableStructureCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var issues []model.Issue
	for _, table := range doc.All("table") {
		issues = append(issues, tables.Validate(table)...)
	}
	return c.audit(snapshot, issues)
}
