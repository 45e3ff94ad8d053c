// Package tables validates the header structure of data tables.
package tables

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

// ComplianceRef is the WCAG criterion every table finding is judged against.
const ComplianceRef = "WCAG 2.1 Section 1.3.1 - Tables"

// Finding titles.
const (
	TitleMissingHeaderCells = "Table without <th> elements defined"
	TitleMissingScope       = "<th> element without a scope attribute"
	TitleHasScope           = "<th> has scope attribute defined"
	TitleMissingHeadersAttr = "No headers attribute was found for <td> element"
	TitleValidHeadersRef    = "Table data cell is associated with a valid header"
)

const (
	descHeaders = "Header cells give data tables the structure assistive technologies " +
		"need to announce which header applies to each data cell."
	descHeadersRef = "A headers attribute on a data cell must reference the id of a header " +
		"cell in the same table so screen readers can relate the cell to its header."
	descHeadersAttr = "In complex tables the headers attribute links each data cell to the " +
		"header cells that describe it."

	recMissingHeaders = "Use <th> elements for the header of every column or row, with a " +
		"scope attribute stating whether each is a column, row or group header."
	recDanglingRef = "Give every <th> a unique id and make each id listed in a data cell's " +
		"headers attribute match one of them."
	recMissingHeadersAttr = "Assign ids to the header cells and list the relevant ids in the " +
		"headers attribute of each <td>."
)

// TitleDanglingRef returns the title of a finding for a headers reference
// that matches no header cell.
func TitleDanglingRef(id string) string {
	return fmt.Sprintf("No corresponding <th> with id '%s' found.", id)
}

// Validate inspects one table element and returns one finding per header
// cell, per headers reference, and per data cell lacking a headers attribute.
// Passing findings score 1 of 1 and carry an empty recommendation; failing
// findings score 0 of 1.
func Validate(table *html.Node) []model.Issue {
	if table == nil {
		return nil
	}

	var issues []model.Issue

	headerCells := dom.QueryAll(table, "th")
	if len(headerCells) == 0 {
		issues = append(issues, fail(table, TitleMissingHeaderCells, descHeaders, recMissingHeaders))
	}
	for _, th := range headerCells {
		if strings.TrimSpace(dom.Attr(th, "scope")) == "" {
			issues = append(issues, fail(th, TitleMissingScope, descHeaders, recMissingHeaders))
			continue
		}
		issues = append(issues, pass(th, TitleHasScope, descHeaders))
	}

	ids := make(map[string]struct{}, len(headerCells))
	for _, th := range headerCells {
		if id := dom.Attr(th, "id"); id != "" {
			ids[id] = struct{}{}
		}
	}

	for _, td := range dom.QueryAll(table, "td") {
		refs := strings.Fields(dom.Attr(td, "headers"))
		if len(refs) == 0 {
			issues = append(issues, fail(td, TitleMissingHeadersAttr, descHeadersAttr, recMissingHeadersAttr))
			continue
		}
		for _, ref := range refs {
			if _, ok := ids[ref]; ok {
				issues = append(issues, pass(td, TitleValidHeadersRef, descHeadersRef))
				continue
			}
			issues = append(issues, fail(td, TitleDanglingRef(ref), descHeadersRef, recDanglingRef))
		}
	}

	return issues
}

func pass(n *html.Node, title, description string) model.Issue {
	return model.Issue{
		Priority:      model.PriorityNone,
		Title:         title,
		Description:   description,
		Category:      model.CategoryAccessibility,
		Labels:        []string{"accessibility", "tables"},
		ComplianceRef: ComplianceRef,
		Selector:      dom.SelectorOf(n),
		PointsAwarded: 1,
		PointsMax:     1,
	}
}

func fail(n *html.Node, title, description, recommendation string) model.Issue {
	issue := pass(n, title, description)
	issue.Priority = model.PriorityHigh
	issue.Recommendation = recommendation
	issue.PointsAwarded = 0
	return issue
}
