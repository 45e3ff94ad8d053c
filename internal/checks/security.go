package checks

import (
	"context"

	"github.com/nao1215/pageaudit/internal/model"
)

// EncryptedCheck reports whether the page was served over https. It is
// informational and does not count toward category scores.
type EncryptedCheck struct {
	meta
}

// NewEncryptedCheck creates the check.
func NewEncryptedCheck() *EncryptedCheck {
	return &EncryptedCheck{meta: meta{
		name:        model.AuditNameEncrypted,
		category:    model.CategoryInformationArchitecture,
		subcategory: model.SubcategorySecurity,
		scored:      false,
		rationale:   "Pages served without TLS can be read and altered in transit.",
	}}
}

// Execute implements Check.
func (c *EncryptedCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	if _, err := parse(snapshot, record); err != nil {
		return nil, err
	}

	f := passed(nil, "Page is served over https", "The page URL uses the https scheme.", "")
	if !snapshot.IsSecure() {
		f = failed(nil, model.PriorityHigh, "Page is not encrypted",
			"The page URL "+snapshot.URL+" does not use https.",
			"Serve the page over https and redirect plain http requests.", "")
	}
	f.selector = ""
	return c.audit(snapshot, []model.Issue{f.issue(c.category, "information_architecture", "security")})
}
