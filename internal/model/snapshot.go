package model

import (
	"encoding/hex"
	"maps"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// Snapshot is the captured state of one page: its serialized markup plus
// per-element computed style records. A run only ever reads it.
type Snapshot struct {
	ID  string `json:"id"`
	URL string `json:"url"`

	// Markup is the serialized HTML document.
	Markup string `json:"markup"`

	// Elements holds computed style records keyed by the element's selector
	// in the positional-address convention ("body div:nth-child(1) ...").
	Elements map[string]ElementRecord `json:"elements,omitempty"`

	// Assets holds captured bytes of page resources (images) keyed by the
	// src value as it appears in the markup.
	Assets map[string][]byte `json:"-"`

	CapturedAt time.Time `json:"captured_at"`
}

// ElementRecord is one element's computed style as captured from a browser.
type ElementRecord struct {
	Selector string            `json:"selector"`
	Tag      string            `json:"tag,omitempty"`
	Styles   map[string]string `json:"styles,omitempty"`
}

// Style returns the computed value of a CSS property, or "" if absent.
func (e ElementRecord) Style(property string) string {
	return strings.TrimSpace(e.Styles[strings.ToLower(property)])
}

// Element returns the record for a selector.
func (s *Snapshot) Element(selector string) (ElementRecord, bool) {
	e, ok := s.Elements[selector]
	return e, ok
}

// SortedSelectors returns the element selectors in lexical order so checks
// iterating over records produce deterministic issue lists.
func (s *Snapshot) SortedSelectors() []string {
	return slices.Sorted(maps.Keys(s.Elements))
}

// IsSecure reports whether the snapshot was captured over https.
func (s *Snapshot) IsSecure() bool {
	return strings.HasPrefix(strings.ToLower(s.URL), "https://")
}

// Digest returns a SHA3-256 hex digest of the URL and markup. Two captures
// of identical content share a digest.
func (s *Snapshot) Digest() string {
	h := sha3.New256()
	h.Write([]byte(s.URL))
	h.Write([]byte{0})
	h.Write([]byte(s.Markup))
	return hex.EncodeToString(h.Sum(nil))
}

// Validate returns ErrInvalidInput if the snapshot cannot be audited.
func (s *Snapshot) Validate() error {
	if s == nil {
		return ErrInvalidInput
	}
	return nil
}
