// Package scoring folds audits into per-category scores and progress.
// Every function here is pure: the same audits and completed names always
// yield the same report.
package scoring

import (
	"slices"
	"time"

	"github.com/nao1215/pageaudit/internal/model"
)

// Expected maps each category to the scored check names that must complete
// before the category's progress reaches 1.0.
type Expected map[model.Category][]model.AuditName

// Ratio returns num/den, or 0 when den is 0.
func Ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Category computes the report of one category. Only scored audits of the
// category contribute to the score; progress counts the expected names that
// appear in completed.
func Category(c model.Category, audits []*model.Audit, completed []model.AuditName, expected []model.AuditName) model.CategoryReport {
	report := model.CategoryReport{
		Category:        c,
		ExpectedChecks:  slices.Clone(expected),
		CompletedChecks: []model.AuditName{},
	}

	scored := 0
	for _, a := range audits {
		if a == nil || a.Category != c || !a.Scored {
			continue
		}
		scored++
		report.PointsAwarded += a.PointsAwarded
		report.PointsMax += a.PointsMax
	}
	if scored > 0 {
		score := Ratio(report.PointsAwarded, report.PointsMax)
		report.Score = &score
	}

	done := make(map[model.AuditName]struct{}, len(completed))
	for _, name := range completed {
		done[name] = struct{}{}
	}
	for _, name := range expected {
		if _, ok := done[name]; ok {
			report.CompletedChecks = append(report.CompletedChecks, name)
		}
	}

	switch {
	case len(expected) > 0:
		report.Progress = Ratio(len(report.CompletedChecks), len(expected))
	case scored > 0:
		report.Progress = 1
	}

	return report
}

// Composite computes the report for a record. Tracked categories are those
// with expected checks plus those referenced by any attached audit. The
// status is complete once every tracked category reaches progress 1.0.
func Composite(record *model.AuditRecord, audits []*model.Audit, expected Expected) *model.CompositeReport {
	tracked := make(map[model.Category]struct{})
	for c, names := range expected {
		if len(names) > 0 {
			tracked[c] = struct{}{}
		}
	}
	for _, a := range audits {
		if a != nil && a.Scored {
			tracked[a.Category] = struct{}{}
		}
	}

	completed := record.CompletedNames()
	report := &model.CompositeReport{
		RecordID:    record.ID,
		URL:         record.URL,
		Categories:  []model.CategoryReport{},
		Status:      model.StatusComplete,
		Audits:      audits,
		GeneratedAt: time.Now().UTC(),
	}

	order := append(model.Categories(), model.CategoryUnknown)
	for _, c := range order {
		if _, ok := tracked[c]; !ok {
			continue
		}
		cr := Category(c, audits, completed, expected[c])
		if cr.Progress < 1 {
			report.Status = model.StatusInProgress
		}
		report.Categories = append(report.Categories, cr)
	}

	return report
}
