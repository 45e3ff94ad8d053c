package checks

import (
	"context"
	"net/url"
	"strings"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

const wcagAudioControl = "WCAG 2.1 Section 1.4.2 - Audio Control"

// AudioControlCheck flags media that starts playing sound without a way to
// stop it.
type AudioControlCheck struct {
	meta
}

// NewAudioControlCheck creates the check.
func NewAudioControlCheck() *AudioControlCheck {
	return &AudioControlCheck{meta: meta{
		name:        model.AuditNameAudioControl,
		category:    model.CategoryAccessibility,
		subcategory: model.SubcategoryWCAG,
		scored:      true,
		rationale:   "Sound that plays automatically drowns out screen reader speech.",
	}}
}

// Execute implements Check.
func (c *AudioControlCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var findings []finding
	for _, media := range doc.All("audio[autoplay], video[autoplay]") {
		if dom.HasAttr(media, "controls") || dom.HasAttr(media, "muted") {
			findings = append(findings, passed(media, "Autoplaying media can be controlled",
				"The media element autoplays but is muted or has controls.", wcagAudioControl))
			continue
		}
		findings = append(findings, failed(media, model.PriorityHigh, "Autoplaying media without controls",
			"The "+media.Data+" element plays automatically without controls and is not muted.",
			"Ensure that audio or video elements with autoplay have user controls or are muted.", wcagAudioControl))
	}

	for _, iframe := range doc.All("iframe[src]") {
		if !autoplays(dom.Attr(iframe, "src")) {
			continue
		}
		findings = append(findings, failed(iframe, model.PriorityMedium, "Embedded content autoplays",
			"Embedded content with autoplaying audio or video found.",
			"Ensure embedded content with autoplay has user controls or the autoplay feature is disabled.", wcagAudioControl))
	}

	issues := make([]model.Issue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, f.issue(c.category, "accessibility", "media"))
	}
	return c.audit(snapshot, issues)
}

func autoplays(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return strings.Contains(src, "autoplay=1")
	}
	return u.Query().Get("autoplay") == "1"
}
