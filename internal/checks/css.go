package checks

import (
	"strconv"
	"strings"

	"github.com/gorilla/css/scanner"
)

// unitToPixels converts CSS length units to pixels, assuming a 16px root font.
var unitToPixels = map[string]float64{
	"px":  1,
	"em":  16,
	"rem": 16,
	"pt":  1.333,
	"%":   0.16,
	"cm":  37.795,
	"mm":  3.7795,
	"in":  96,
	"pc":  16,
	"ex":  8,
}

// parseLength converts a CSS length such as "1.5em" into pixels.
// A bare number is treated as pixels. ok is false for keywords like
// "normal" or "auto" and for unknown units.
func parseLength(value string) (px float64, ok bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return 0, false
	}

	end := 0
	for end < len(value) && (value[end] == '.' || value[end] == '-' || value[end] == '+' || (value[end] >= '0' && value[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.ParseFloat(value[:end], 64)
	if err != nil {
		return 0, false
	}

	unit := strings.TrimSpace(value[end:])
	if unit == "" {
		return n, true
	}
	factor, known := unitToPixels[unit]
	if !known {
		return 0, false
	}
	return n * factor, true
}

// isLength reports whether value is a CSS length parseLength understands.
func isLength(value string) bool {
	_, ok := parseLength(value)
	return ok
}

// lengthUnit returns the unit suffix of a CSS length, e.g. "px" for "12px".
func lengthUnit(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	i := strings.LastIndexAny(value, "0123456789.")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(value[i+1:])
}

// ParseDeclarations tokenizes a CSS declaration list, such as an inline
// style attribute, into a property map.
// Property names are lower-cased; "!important" is dropped from values.
func ParseDeclarations(style string) map[string]string {
	decls := make(map[string]string)
	s := scanner.New(style)

	var (
		property string
		value    strings.Builder
		inValue  bool
	)
	flush := func() {
		if property != "" {
			v := strings.TrimSpace(value.String())
			v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
			if v != "" {
				decls[property] = v
			}
		}
		property = ""
		value.Reset()
		inValue = false
	}

	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError {
			break
		}
		switch {
		case tok.Type == scanner.TokenChar && tok.Value == ";":
			flush()
		case !inValue && tok.Type == scanner.TokenIdent:
			property = strings.ToLower(tok.Value)
		case !inValue && tok.Type == scanner.TokenChar && tok.Value == ":":
			inValue = property != ""
		case inValue && tok.Type == scanner.TokenS:
			value.WriteString(" ")
		case inValue && tok.Type != scanner.TokenComment:
			value.WriteString(tok.Value)
		}
	}
	flush()

	return decls
}

// mediaFeatures returns the "feature:value" pairs named inside the
// preludes of @media rules in a stylesheet, lower-cased and without spaces.
func mediaFeatures(stylesheet string) []string {
	var features []string
	s := scanner.New(stylesheet)

	inMedia := false
	var pending string
	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError {
			break
		}
		switch {
		case tok.Type == scanner.TokenAtKeyword:
			inMedia = strings.EqualFold(tok.Value, "@media")
		case !inMedia:
		case tok.Type == scanner.TokenChar && tok.Value == "{":
			inMedia = false
			pending = ""
		case tok.Type == scanner.TokenIdent && pending == "":
			pending = strings.ToLower(tok.Value)
		case tok.Type == scanner.TokenChar && tok.Value == ":" && pending != "":
			pending += ":"
		case tok.Type == scanner.TokenIdent && strings.HasSuffix(pending, ":"):
			features = append(features, pending+strings.ToLower(tok.Value))
			pending = ""
		case tok.Type == scanner.TokenS:
		default:
			pending = ""
		}
	}
	return features
}
