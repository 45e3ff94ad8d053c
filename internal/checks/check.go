package checks

import (
	"context"
	"fmt"

	"golang.org/x/net/html"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

// Check is one independent rule evaluated against a snapshot.
// Checks share no mutable state; Execute only reads the snapshot and record.
type Check interface {
	// Name returns the audit name used for dedup on the record.
	Name() model.AuditName

	// Category returns the category the produced audit belongs to.
	Category() model.Category

	// Scored reports whether the produced audit counts toward category
	// score and progress.
	Scored() bool

	// Execute evaluates the rule and returns the resulting audit.
	Execute(ctx context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error)
}

// meta carries the descriptive fields every check shares.
type meta struct {
	name        model.AuditName
	category    model.Category
	subcategory model.Subcategory
	scored      bool
	rationale   string
}

func (m meta) Name() model.AuditName { return m.name }

func (m meta) Category() model.Category { return m.category }

func (m meta) Scored() bool { return m.scored }

func (m meta) spec(url string) model.AuditSpec {
	return model.AuditSpec{
		Name:        m.name,
		Category:    m.category,
		Subcategory: m.subcategory,
		URL:         url,
		Rationale:   m.rationale,
		Scored:      m.scored,
	}
}

// audit folds issues into the check's audit.
func (m meta) audit(snapshot *model.Snapshot, issues []model.Issue) (*model.Audit, error) {
	a, err := model.NewAudit(m.spec(snapshot.URL), issues)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s audit: %w", m.name, err)
	}
	return a, nil
}

// parse validates the inputs shared by every check and parses the markup.
func parse(snapshot *model.Snapshot, record *model.AuditRecord) (*dom.Document, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", model.ErrInvalidInput)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: nil record", model.ErrInvalidInput)
	}
	return dom.ParseString(snapshot.Markup)
}

// finding describes an Issue before it is bound to a check's category.
type finding struct {
	priority       model.Priority
	title          string
	description    string
	recommendation string
	compliance     string
	node           *html.Node
	selector       string
	awarded        int
	max            int
}

// issue converts f into an Issue of category c. Nodes are addressed with
// their positional selector.
func (f finding) issue(c model.Category, labels ...string) model.Issue {
	selector := f.selector
	if selector == "" && f.node != nil {
		selector = dom.SelectorOf(f.node)
	}
	maxPoints := f.max
	if maxPoints == 0 {
		maxPoints = 1
	}
	return model.Issue{
		Priority:       f.priority,
		Title:          f.title,
		Description:    f.description,
		Recommendation: f.recommendation,
		Category:       c,
		Labels:         labels,
		ComplianceRef:  f.compliance,
		Selector:       selector,
		PointsAwarded:  f.awarded,
		PointsMax:      maxPoints,
	}
}

// passed returns a one-point passing finding.
func passed(n *html.Node, title, description, compliance string) finding {
	return finding{
		priority:    model.PriorityNone,
		title:       title,
		description: description,
		compliance:  compliance,
		node:        n,
		awarded:     1,
		max:         1,
	}
}

// failed returns a zero-of-one failing finding.
func failed(n *html.Node, p model.Priority, title, description, recommendation, compliance string) finding {
	return finding{
		priority:       p,
		title:          title,
		description:    description,
		recommendation: recommendation,
		compliance:     compliance,
		node:           n,
		awarded:        0,
		max:            1,
	}
}
