package model

import (
	"fmt"
	"strings"
)

// Priority ranks how urgently an Issue should be addressed.
// The zero value is PriorityNone, used for passing findings.
type Priority int

const (
	// PriorityNone marks a finding that passed its assertion.
	PriorityNone Priority = iota

	// PriorityLow marks cosmetic or best-practice findings.
	PriorityLow

	// PriorityMedium marks findings that degrade usability for some users.
	PriorityMedium

	// PriorityHigh marks findings that block users of assistive technology
	// or break the page's structure.
	PriorityHigh
)

// String returns the upper-case name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityNone:
		return "NONE"
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// ParsePriority converts a name produced by String back into a Priority.
// Matching is case-insensitive.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE", "":
		return PriorityNone, nil
	case "LOW":
		return PriorityLow, nil
	case "MEDIUM":
		return PriorityMedium, nil
	case "HIGH":
		return PriorityHigh, nil
	default:
		return PriorityNone, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
