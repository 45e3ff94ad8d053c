package model

import (
	"errors"
	"time"
)

// Audit is the output of one check against one snapshot.
// Build it with NewAudit; its point totals always equal the sums over Issues.
type Audit struct {
	ID          string      `json:"id,omitempty"`
	Name        AuditName   `json:"name"`
	Category    Category    `json:"category"`
	Subcategory Subcategory `json:"subcategory"`
	Issues      []Issue     `json:"issues"`

	PointsAwarded int `json:"points_awarded"`
	PointsMax     int `json:"points_max"`

	URL       string `json:"url"`
	Rationale string `json:"rationale,omitempty"`

	// Scored is false for informational audits, which are kept on the
	// record but excluded from category score and progress.
	Scored bool `json:"scored"`

	CreatedAt time.Time `json:"created_at"`
}

// AuditSpec carries the descriptive fields of an audit under construction.
type AuditSpec struct {
	Name        AuditName
	Category    Category
	Subcategory Subcategory
	URL         string
	Rationale   string
	Scored      bool
}

// NewAudit builds an Audit from a complete list of issues, folding their
// points into the audit totals. Every issue must satisfy Issue.Validate.
func NewAudit(spec AuditSpec, issues []Issue) (*Audit, error) {
	var errs []error
	for _, issue := range issues {
		if err := issue.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if issues == nil {
		issues = []Issue{}
	}
	awarded, maxPoints := SumPoints(issues)

	return &Audit{
		Name:          spec.Name,
		Category:      spec.Category,
		Subcategory:   spec.Subcategory,
		Issues:        issues,
		PointsAwarded: awarded,
		PointsMax:     maxPoints,
		URL:           spec.URL,
		Rationale:     spec.Rationale,
		Scored:        spec.Scored,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Score returns PointsAwarded / PointsMax, or 0 when PointsMax is 0.
func (a *Audit) Score() float64 {
	if a.PointsMax == 0 {
		return 0
	}
	return float64(a.PointsAwarded) / float64(a.PointsMax)
}
