package model

import "strings"

// Category groups audits into the top-level sections of the composite report.
type Category int

const (
	// CategoryUnknown is the fallback for unrecognized category names.
	CategoryUnknown Category = iota

	// CategoryInformationArchitecture covers navigation, SEO and security.
	CategoryInformationArchitecture

	// CategoryAccessibility covers WCAG conformance rules.
	CategoryAccessibility

	// CategoryContent covers text and media content quality.
	CategoryContent

	// CategoryAesthetics covers visual design rules.
	CategoryAesthetics
)

var categoryNames = map[Category]string{
	CategoryUnknown:                 "UNKNOWN",
	CategoryInformationArchitecture: "INFORMATION_ARCHITECTURE",
	CategoryAccessibility:           "ACCESSIBILITY",
	CategoryContent:                 "CONTENT",
	CategoryAesthetics:              "AESTHETICS",
}

// Categories returns every known category except CategoryUnknown, in report order.
func Categories() []Category {
	return []Category{
		CategoryInformationArchitecture,
		CategoryAccessibility,
		CategoryContent,
		CategoryAesthetics,
	}
}

// String returns the upper-case name of the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseCategory returns the category with the given name, or CategoryUnknown.
func ParseCategory(s string) Category {
	s = strings.ToUpper(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == s {
			return c
		}
	}
	return CategoryUnknown
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	*c = ParseCategory(string(text))
	return nil
}

// Subcategory refines a Category.
type Subcategory int

const (
	SubcategoryUnknown Subcategory = iota
	SubcategoryNavigation
	SubcategorySEO
	SubcategorySecurity
	SubcategoryStructure
	SubcategoryLanguage
	SubcategoryLinks
	SubcategoryWCAG
)

var subcategoryNames = map[Subcategory]string{
	SubcategoryUnknown:    "UNKNOWN",
	SubcategoryNavigation: "NAVIGATION",
	SubcategorySEO:        "SEO",
	SubcategorySecurity:   "SECURITY",
	SubcategoryStructure:  "STRUCTURE",
	SubcategoryLanguage:   "LANGUAGE",
	SubcategoryLinks:      "LINKS",
	SubcategoryWCAG:       "WCAG",
}

// String returns the upper-case name of the subcategory.
func (s Subcategory) String() string {
	if name, ok := subcategoryNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseSubcategory returns the subcategory with the given name, or SubcategoryUnknown.
func ParseSubcategory(s string) Subcategory {
	s = strings.ToUpper(strings.TrimSpace(s))
	for sc, name := range subcategoryNames {
		if name == s {
			return sc
		}
	}
	return SubcategoryUnknown
}

// MarshalText implements encoding.TextMarshaler.
func (s Subcategory) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Subcategory) UnmarshalText(text []byte) error {
	*s = ParseSubcategory(string(text))
	return nil
}
