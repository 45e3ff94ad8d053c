package model

import "fmt"

// Issue is one finding produced by a check.
// A passing finding has PointsAwarded == PointsMax and an empty Recommendation.
type Issue struct {
	// ID is assigned by the store when the issue is persisted.
	ID string `json:"id,omitempty"`

	Priority       Priority `json:"priority"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Category       Category `json:"category"`
	Labels         []string `json:"labels,omitempty"`

	// ComplianceRef names the WCAG criterion the finding is judged against,
	// e.g. "WCAG 2.1 Section 1.3.1 - Tables".
	ComplianceRef string `json:"compliance_ref,omitempty"`

	// Selector locates the originating element, when there is one.
	Selector string `json:"selector,omitempty"`

	PointsAwarded int `json:"points_awarded"`
	PointsMax     int `json:"points_max"`
}

// Validate reports whether the issue's points are within 0 <= awarded <= max.
func (i Issue) Validate() error {
	if i.PointsMax < 0 || i.PointsAwarded < 0 || i.PointsAwarded > i.PointsMax {
		return fmt.Errorf("%w: issue %q scored %d of %d", ErrInvalidInput, i.Title, i.PointsAwarded, i.PointsMax)
	}
	return nil
}

// Passed reports whether the issue earned all of its points.
func (i Issue) Passed() bool {
	return i.PointsAwarded == i.PointsMax
}

// SumPoints folds issues into their awarded and maximum point totals.
func SumPoints(issues []Issue) (awarded, maxPoints int) {
	for _, issue := range issues {
		awarded += issue.PointsAwarded
		maxPoints += issue.PointsMax
	}
	return awarded, maxPoints
}
