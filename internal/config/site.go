package config

import (
	"fmt"
	"slices"

	"github.com/nao1215/pageaudit/internal/model"
)

// SiteConfig holds settings applied to requests and checks for one host.
type SiteConfig struct {
	// Cookie is sent with every request to the host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent to the host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// DisabledChecks are audit names skipped for the host.
	DisabledChecks []string `yaml:"disabledChecks,omitempty"`

	// ProbeLinks overrides link probing for the host when set.
	ProbeLinks *bool `yaml:"probeLinks,omitempty"`
}

// File represents the structure of the .pageaudit configuration file.
type File struct {
	// Sites maps host names (e.g. "example.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host unless a site entry overrides them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// ForHost returns the settings for host: defaults merged with the host's
// entry. Scalars in the site entry win, headers are merged key by key and
// disabled checks are combined.
func (cf *File) ForHost(host string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}

	result := SiteConfig{
		Cookie:         cf.Defaults.Cookie,
		DisabledChecks: slices.Clone(cf.Defaults.DisabledChecks),
		ProbeLinks:     cf.Defaults.ProbeLinks,
	}
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	site, ok := cf.Sites[host]
	if !ok {
		return result
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	for _, name := range site.DisabledChecks {
		if !slices.Contains(result.DisabledChecks, name) {
			result.DisabledChecks = append(result.DisabledChecks, name)
		}
	}
	if site.ProbeLinks != nil {
		result.ProbeLinks = site.ProbeLinks
	}
	return result
}

// ParseCheckNames converts audit names such as "LINKS" into AuditNames.
// Matching is case-insensitive. Unknown names return ErrUnknownCheck.
func ParseCheckNames(names []string) ([]model.AuditName, error) {
	parsed := make([]model.AuditName, 0, len(names))
	for _, name := range names {
		n := model.ParseAuditName(name)
		if n == model.AuditNameUnknown {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCheck, name)
		}
		parsed = append(parsed, n)
	}
	return parsed, nil
}
