package checks

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

const wcagInputPurpose = "WCAG 2.1 Section 1.3.5 - Identify Input Purpose"

// autofillTokens are the autocomplete field names listed for input purposes.
var autofillTokens = tokenSet(`name honorific-prefix given-name additional-name family-name
		honorific-suffix nickname email username new-password current-password organization-title
		organization street-address address-line1 address-line2 address-line3 address-level1
		address-level2 address-level3 address-level4 country country-name postal-code cc-name
		cc-given-name cc-additional-name cc-family-name cc-number cc-exp cc-exp-month cc-exp-year
		cc-csc cc-type transaction-currency transaction-amount language bday bday-day bday-month
		bday-year sex tel tel-country-code tel-national tel-area-code tel-local tel-local-prefix
		tel-local-suffix tel-extension impp url photo`)

func tokenSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range strings.Fields(list) {
		set[token] = true
	}
	return set
}

// personalData matches names and labels of fields that collect data about the user.
var personalData = regexp.MustCompile(`(?i)name|e-?mail|address|phone|tel|credit|card|dob|birth|gender|username|city|zip|postal|country`)

// personalTypes are input types that always collect data about the user.
var personalTypes = map[string]bool{"email": true, "tel": true, "password": true}

// InputPurposeCheck verifies that inputs collecting personal data declare
// their purpose with a valid autocomplete token.
type InputPurposeCheck struct {
	meta
}

// NewInputPurposeCheck creates the check.
func NewInputPurposeCheck() *InputPurposeCheck {
	return &InputPurposeCheck{meta: meta{
		name:        model.AuditNameInputPurpose,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryWCAG,
		scored:      true,
		rationale: "Declared input purposes let browsers autofill and let assistive " +
			"technology show familiar icons for personal fields.",
	}}
}

// Execute implements Check.
func (c *InputPurposeCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var issues []model.Issue
	for _, input := range doc.All("input, select, textarea") {
		if !collectsPersonalData(input) {
			continue
		}
		f := passed(input, "Compliant autocomplete attribute", "The input declares its purpose with autocomplete.", wcagInputPurpose)
		if !validAutocomplete(dom.Attr(input, "autocomplete")) {
			f = failed(input, model.PriorityMedium, "Non-compliant autocomplete attribute",
				"Input element autocomplete attribute is missing or incorrect.",
				"Set autocomplete to the token that matches the field, e.g. email, tel or given-name.",
				wcagInputPurpose)
		}
		issues = append(issues, f.issue(c.category, "accessibility", "forms"))
	}
	return c.audit(snapshot, issues)
}

func collectsPersonalData(input *html.Node) bool {
	typ := strings.ToLower(dom.Attr(input, "type"))
	switch typ {
	case "hidden", "submit", "button", "reset", "image", "checkbox", "radio", "file", "range", "color":
		return false
	}
	if personalTypes[typ] {
		return true
	}
	for _, key := range []string{"name", "id", "aria-label", "placeholder"} {
		if v := dom.Attr(input, key); v != "" && personalData.MatchString(v) {
			return true
		}
	}
	return false
}

// validAutocomplete reports whether the last token of an autocomplete value
// is a known field name. Section and contact prefixes such as "shipping" or
// "home" may precede it.
func validAutocomplete(value string) bool {
	tokens := strings.Fields(strings.ToLower(value))
	if len(tokens) == 0 {
		return false
	}
	last := tokens[len(tokens)-1]
	if last == "webauthn" && len(tokens) > 1 {
		last = tokens[len(tokens)-2]
	}
	return autofillTokens[last]
}
