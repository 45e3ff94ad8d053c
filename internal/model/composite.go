package model

import "time"

// ExecutionStatus is the overall state of a record's run.
type ExecutionStatus string

const (
	// StatusInProgress means at least one tracked category has unfinished checks.
	StatusInProgress ExecutionStatus = "inProgress"

	// StatusComplete means every tracked category reached progress 1.0.
	StatusComplete ExecutionStatus = "complete"
)

// CategoryReport is the derived score and progress of one category.
type CategoryReport struct {
	Category Category `json:"category"`

	// Score is awarded/max over the category's scored audits. It is nil when
	// no scored audit of the category has completed yet.
	Score *float64 `json:"score"`

	// Progress is completed expected checks over expected checks.
	Progress float64 `json:"progress"`

	PointsAwarded int `json:"points_awarded"`
	PointsMax     int `json:"points_max"`

	CompletedChecks []AuditName `json:"completed_checks"`
	ExpectedChecks  []AuditName `json:"expected_checks"`
}

// CompositeReport is what callers query after a run.
type CompositeReport struct {
	RecordID    string           `json:"record_id"`
	URL         string           `json:"url"`
	Categories  []CategoryReport `json:"categories"`
	Status      ExecutionStatus  `json:"execution_status"`
	Audits      []*Audit         `json:"audits,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Category returns the report for c, if the composite tracks it.
func (r *CompositeReport) Category(c Category) (CategoryReport, bool) {
	for _, cr := range r.Categories {
		if cr.Category == c {
			return cr, true
		}
	}
	return CategoryReport{}, false
}
