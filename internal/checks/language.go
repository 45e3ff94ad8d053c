package checks

import (
	"context"
	"strings"

	"golang.org/x/text/language"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

const wcagLanguageOfPage = "WCAG 2.1 Section 3.1.1 - Language of Page"

// PageLanguageCheck verifies that the html element declares a valid
// ISO 639-1 language.
type PageLanguageCheck struct {
	meta
}

// NewPageLanguageCheck creates the check.
func NewPageLanguageCheck() *PageLanguageCheck {
	return &PageLanguageCheck{meta: meta{
		name:        model.AuditNamePageLanguage,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryLanguage,
		scored:      true,
		rationale:   "Assistive technology picks pronunciation rules from the page language.",
	}}
}

// Execute implements Check.
func (c *PageLanguageCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	root := doc.HTML()
	lang := strings.TrimSpace(dom.Attr(root, "lang"))

	var f finding
	switch {
	case lang == "":
		f = failed(root, model.PriorityHigh, "Page language is not set",
			"The html element has no lang attribute.",
			`Add a lang attribute such as <html lang="en">.`, wcagLanguageOfPage)
	case !validLanguage(lang):
		f = failed(root, model.PriorityHigh, "Page language is not valid",
			"The lang attribute \""+lang+"\" is not an ISO 639-1 language code.",
			"Use a two-letter ISO 639-1 code, optionally followed by a region, e.g. en or en-US.", wcagLanguageOfPage)
	default:
		f = passed(root, "Page language is set", "The page declares its language as \""+lang+"\".", wcagLanguageOfPage)
	}
	f.selector = "html"
	return c.audit(snapshot, []model.Issue{f.issue(c.category, "accessibility", "language")})
}

// validLanguage reports whether tag starts with a known two-letter base language.
func validLanguage(tag string) bool {
	primary, _, _ := strings.Cut(tag, "-")
	if len(primary) != 2 {
		return false
	}
	base, err := language.ParseBase(primary)
	if err != nil {
		return false
	}
	return strings.EqualFold(base.String(), primary)
}
