package checks

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

const wcagLinkPurpose = "WCAG 2.1 Section 2.4.4 - Link Purpose (In Context)"

// genericLinkText lists link texts that say nothing about the destination.
var genericLinkText = []string{"click here", "here", "more", "read more", "learn more", "info"}

// LinkProber verifies that a link destination is reachable. Implementations
// own their timeout and retry policy; a nil error means reachable.
type LinkProber interface {
	Probe(ctx context.Context, rawURL string) error
}

// LinksCheck scores every anchor on the page for a usable href, a well-formed
// destination and descriptive text.
type LinksCheck struct {
	meta
	prober LinkProber
}

// NewLinksCheck creates the check. A nil prober skips reachability probing.
func NewLinksCheck(prober LinkProber) *LinksCheck {
	return &LinksCheck{
		meta: meta{
			name:        model.AuditNameLinks,
			category:    model.CategoryInformationArchitecture,
			subcategory: model.SubcategoryLinks,
			scored:      true,
			rationale: "Links without text or with dead destinations leave screen reader " +
				"users unable to tell where a link goes and erode trust in the page.",
		},
		prober: prober,
	}
}

// Execute implements Check.
func (c *LinksCheck) Execute(ctx context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	probed := make(map[string]error)
	var issues []model.Issue
	for _, a := range doc.All("a") {
		for _, f := range c.evaluateHref(ctx, snapshot.URL, a, probed) {
			issues = append(issues, f.issue(c.category, "information_architecture", "links"))
		}
		issues = append(issues, evaluateLinkText(a).issue(c.category, "accessibility", "links"))
	}

	return c.audit(snapshot, issues)
}

func (c *LinksCheck) evaluateHref(ctx context.Context, base string, a *html.Node, probed map[string]error) []finding {
	if !dom.HasAttr(a, "href") {
		return []finding{failed(a, model.PriorityHigh, "Link is missing href attribute",
			"The link has no href attribute and cannot be followed.",
			"Add an href attribute pointing to the link destination.", wcagLinkPurpose)}
	}

	href := strings.TrimSpace(dom.Attr(a, "href"))
	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "mailto:"):
		return []finding{passed(a, "Link uses mailto: protocol", "The link opens an email client.", wcagLinkPurpose)}
	case strings.HasPrefix(lower, "tel:"):
		return []finding{passed(a, "Link uses tel: protocol", "The link starts a phone call.", wcagLinkPurpose)}
	case href == "":
		return []finding{failed(a, model.PriorityHigh, "Link url is missing",
			"The href attribute is empty.",
			"Set the href attribute to the link destination.", wcagLinkPurpose)}
	case strings.HasPrefix(lower, "javascript:"):
		return []finding{failed(a, model.PriorityMedium, "Invalid link url",
			"The link runs a script instead of pointing to a location.",
			"Use a button for scripted actions and reserve links for navigation.", wcagLinkPurpose)}
	case strings.HasPrefix(href, "#"):
		return []finding{passed(a, "Link points to a location on the page", "The link targets an in-page fragment.", wcagLinkPurpose)}
	}

	target, err := dom.Resolve(base, href)
	if err != nil {
		return []finding{failed(a, model.PriorityHigh, "Invalid link url format",
			"The href value is not a valid URL: "+href,
			"Correct the href so it is a valid absolute or relative URL.", wcagLinkPurpose)}
	}
	findings := []finding{passed(a, "Link URL is properly formatted", "The href value is a valid URL.", wcagLinkPurpose)}

	if c.prober == nil || (target.Scheme != "http" && target.Scheme != "https") {
		return findings
	}
	key := target.String()
	probeErr, seen := probed[key]
	if !seen {
		probeErr = c.prober.Probe(ctx, key)
		probed[key] = probeErr
	}
	if probeErr != nil {
		return append(findings, failed(a, model.PriorityMedium, "Link destination could not be reached",
			"Requesting "+key+" failed: "+probeErr.Error(),
			"Fix or remove links whose destination no longer exists.", wcagLinkPurpose))
	}
	return append(findings, passed(a, "Link points to valid location", "Link points to valid location - "+key, wcagLinkPurpose))
}

func evaluateLinkText(a *html.Node) finding {
	text := linkText(a)
	switch {
	case text == "":
		return failed(a, model.PriorityHigh, "Link is missing text",
			"Link doesn't contain any text",
			"Give the link text, an aria-label, or an image with alt text describing the destination.",
			wcagLinkPurpose)
	case slices.Contains(genericLinkText, strings.ToLower(text)):
		return failed(a, model.PriorityMedium, "Link text is not considered accessible",
			"The link text \""+text+"\" does not describe the destination.",
			"Replace the link text with wording that tells the user what they will find at the destination.",
			wcagLinkPurpose)
	default:
		return passed(a, "Link is setup correctly and considered accessible",
			"Link contains text and is setup correctly.", wcagLinkPurpose)
	}
}

// linkText is the accessible name of a link: its text, its aria-label, or
// the alt text of an image inside it.
func linkText(a *html.Node) string {
	if text := dom.Text(a); text != "" {
		return text
	}
	if label := strings.TrimSpace(dom.Attr(a, "aria-label")); label != "" {
		return label
	}
	for _, img := range dom.QueryAll(a, "img[alt]") {
		if alt := strings.TrimSpace(dom.Attr(img, "alt")); alt != "" {
			return alt
		}
	}
	return ""
}
