package model

import "strings"

// AuditName identifies a check. The set is closed: names read from storage,
// queues or configuration that are not listed here decode to AuditNameUnknown,
// so dedup comparisons never match on free-form strings.
type AuditName int

// Known audit names. Values are persisted by name, never by number.
const (
	AuditNameUnknown AuditName = iota
	AuditNameColorPalette
	AuditNameTextBackgroundContrast
	AuditNameNonTextBackgroundContrast
	AuditNameLinks
	AuditNameTypefaces
	AuditNameFont
	AuditNamePadding
	AuditNameMargin
	AuditNameMeasureUnits
	AuditNameTitles
	AuditNameAltText
	AuditNameParagraphing
	AuditNameMetadata
	AuditNameImageCopyright
	AuditNameImagePolicy
	AuditNameReadingComplexity
	AuditNameEncrypted
	AuditNameHeaderStructure
	AuditNameTableStructure
	AuditNameFormStructure
	AuditNameOrientation
	AuditNameInputPurpose
	AuditNameIdentifyPurpose
	AuditNameUseOfColor
	AuditNameAudioControl
	AuditNameReflow
	AuditNameVisualPresentation
	AuditNameTextSpacing
	AuditNamePageLanguage
	AuditNameListStructure
	AuditNameEmphasis
	AuditNameKeyboardAccessible
	AuditNameInputLabel
)

var auditNames = [...]string{
	AuditNameUnknown:                   "UNKNOWN",
	AuditNameColorPalette:              "COLOR_PALETTE",
	AuditNameTextBackgroundContrast:    "TEXT_BACKGROUND_CONTRAST",
	AuditNameNonTextBackgroundContrast: "NON_TEXT_BACKGROUND_CONTRAST",
	AuditNameLinks:                     "LINKS",
	AuditNameTypefaces:                 "TYPEFACES",
	AuditNameFont:                      "FONT",
	AuditNamePadding:                   "PADDING",
	AuditNameMargin:                    "MARGIN",
	AuditNameMeasureUnits:              "MEASURE_UNITS",
	AuditNameTitles:                    "TITLES",
	AuditNameAltText:                   "ALT_TEXT",
	AuditNameParagraphing:              "PARAGRAPHING",
	AuditNameMetadata:                  "METADATA",
	AuditNameImageCopyright:            "IMAGE_COPYRIGHT",
	AuditNameImagePolicy:               "IMAGE_POLICY",
	AuditNameReadingComplexity:         "READING_COMPLEXITY",
	AuditNameEncrypted:                 "ENCRYPTED",
	AuditNameHeaderStructure:           "HEADER_STRUCTURE",
	AuditNameTableStructure:            "TABLE_STRUCTURE",
	AuditNameFormStructure:             "FORM_STRUCTURE",
	AuditNameOrientation:               "ORIENTATION",
	AuditNameInputPurpose:              "INPUT_PURPOSE",
	AuditNameIdentifyPurpose:           "IDENTIFY_PURPOSE",
	AuditNameUseOfColor:                "USE_OF_COLOR",
	AuditNameAudioControl:              "AUDIO_CONTROL",
	AuditNameReflow:                    "REFLOW",
	AuditNameVisualPresentation:        "VISUAL_PRESENTATION",
	AuditNameTextSpacing:               "TEXT_SPACING",
	AuditNamePageLanguage:              "PAGE_LANGUAGE",
	AuditNameListStructure:             "LIST_STRUCTURE",
	AuditNameEmphasis:                  "EMPHASIS",
	AuditNameKeyboardAccessible:        "KEYBOARD_ACCESSIBLE",
	AuditNameInputLabel:                "INPUT_LABEL",
}

// String returns the upper-case wire name of the audit.
func (n AuditName) String() string {
	if n < 0 || int(n) >= len(auditNames) {
		return auditNames[AuditNameUnknown]
	}
	return auditNames[n]
}

// ParseAuditName maps a wire name to an AuditName. It never fails:
// unrecognized names yield AuditNameUnknown.
func ParseAuditName(s string) AuditName {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range auditNames {
		if name == s {
			return AuditName(i)
		}
	}
	return AuditNameUnknown
}

// AuditNames returns every known name except AuditNameUnknown.
func AuditNames() []AuditName {
	names := make([]AuditName, 0, len(auditNames)-1)
	for i := 1; i < len(auditNames); i++ {
		names = append(names, AuditName(i))
	}
	return names
}

// MarshalText implements encoding.TextMarshaler.
func (n AuditName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *AuditName) UnmarshalText(text []byte) error {
	*n = ParseAuditName(string(text))
	return nil
}
