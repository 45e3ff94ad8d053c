package tables

import (
	"testing"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

func validateMarkup(t *testing.T, markup string) []model.Issue {
	t.Helper()
	doc, err := dom.ParseString(markup)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	table := doc.First("table")
	if table == nil {
		t.Fatal("no table in markup")
	}
	return Validate(table)
}

func failing(issues []model.Issue) []model.Issue {
	var out []model.Issue
	for _, issue := range issues {
		if issue.Recommendation != "" {
			out = append(out, issue)
		}
	}
	return out
}

func TestValidateNoHeaderCells(t *testing.T) {
	t.Parallel()

	issues := validateMarkup(t, `<table><tr><td>Data</td><td headers="">More</td></tr></table>`)

	if len(issues) != 3 {
		t.Fatalf("got %d issues, expected 3", len(issues))
	}
	if issues[0].Title != TitleMissingHeaderCells {
		t.Errorf("got %q", issues[0].Title)
	}
	if issues[0].PointsAwarded != 0 || issues[0].PointsMax != 1 {
		t.Errorf("expected 0/1, got %d/%d", issues[0].PointsAwarded, issues[0].PointsMax)
	}
	for _, issue := range issues[1:] {
		if issue.Title != TitleMissingHeadersAttr {
			t.Errorf("got %q, expected missing headers attribute", issue.Title)
		}
	}
}

func TestValidateScope(t *testing.T) {
	t.Parallel()

	t.Run("scoped header passes", func(t *testing.T) {
		t.Parallel()
		issues := validateMarkup(t, `<table><tr><th scope="col">Header</th><td>Data</td></tr></table>`)
		failed := failing(issues)
		if len(failed) != 1 || failed[0].Title != TitleMissingHeadersAttr {
			t.Errorf("unexpected failing issues %+v", failed)
		}
		if issues[0].Title != TitleHasScope || !issues[0].Passed() {
			t.Errorf("expected first issue to be a passing scope finding, got %+v", issues[0])
		}
	})

	t.Run("header without scope fails", func(t *testing.T) {
		t.Parallel()
		issues := validateMarkup(t, `<table><tr><th>Header</th><td>Data</td></tr></table>`)
		if len(issues) != 2 {
			t.Fatalf("got %d issues, expected 2", len(issues))
		}
		if issues[0].Title != TitleMissingScope {
			t.Errorf("got %q", issues[0].Title)
		}
		if issues[0].Priority != model.PriorityHigh {
			t.Errorf("got priority %v, expected HIGH", issues[0].Priority)
		}
	})
}

func TestValidateHeadersReferences(t *testing.T) {
	t.Parallel()

	t.Run("dangling reference", func(t *testing.T) {
		t.Parallel()
		issues := validateMarkup(t, `<table><tr><th id="a" scope="col">A</th></tr><tr><td headers="x">1</td></tr></table>`)
		failed := failing(issues)
		if len(failed) != 1 {
			t.Fatalf("got %d failing issues, expected 1", len(failed))
		}
		if failed[0].Title != TitleDanglingRef("x") {
			t.Errorf("got %q", failed[0].Title)
		}
		if failed[0].Selector != "body table:nth-child(1) tbody:nth-child(1) tr:nth-child(2) td:nth-child(1)" {
			t.Errorf("unexpected selector %q", failed[0].Selector)
		}
	})

	t.Run("one finding per referenced id", func(t *testing.T) {
		t.Parallel()
		issues := validateMarkup(t, `<table><tr><th id="a" scope="col">A</th><th id="b" scope="col">B</th></tr>`+
			`<tr><td headers="a  b missing">1</td></tr></table>`)
		// two scope passes, two valid references, one dangling reference
		if len(issues) != 5 {
			t.Fatalf("got %d issues, expected 5", len(issues))
		}
		failed := failing(issues)
		if len(failed) != 1 || failed[0].Title != TitleDanglingRef("missing") {
			t.Errorf("unexpected failing issues %+v", failed)
		}
	})

	t.Run("ids on non-header cells do not count", func(t *testing.T) {
		t.Parallel()
		issues := validateMarkup(t, `<table><tr><th scope="row">H</th><td id="c">C</td><td headers="c">D</td></tr></table>`)
		var dangling int
		for _, issue := range issues {
			if issue.Title == TitleDanglingRef("c") {
				dangling++
			}
		}
		if dangling != 1 {
			t.Errorf("got %d dangling findings, expected 1", dangling)
		}
	})
}

func TestValidateFindingShape(t *testing.T) {
	t.Parallel()

	issues := validateMarkup(t, `<table><tr><th scope="col" id="h">H</th></tr><tr><td headers="h">1</td></tr></table>`)
	for _, issue := range issues {
		if issue.ComplianceRef != ComplianceRef {
			t.Errorf("missing compliance ref on %q", issue.Title)
		}
		if issue.Selector == "" {
			t.Errorf("missing selector on %q", issue.Title)
		}
		if err := issue.Validate(); err != nil {
			t.Errorf("invalid points: %v", err)
		}
		if !issue.Passed() || issue.Recommendation != "" {
			t.Errorf("expected passing issue, got %+v", issue)
		}
	}
}

func TestValidateNil(t *testing.T) {
	t.Parallel()

	if issues := Validate(nil); len(issues) != 0 {
		t.Errorf("expected no issues, got %d", len(issues))
	}
}
