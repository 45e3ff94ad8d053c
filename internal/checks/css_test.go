package checks

import (
	"math"
	"slices"
	"testing"
)

func TestParseLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  float64
		ok    bool
	}{
		{value: "12px", want: 12, ok: true},
		{value: "1.5em", want: 24, ok: true},
		{value: "2rem", want: 32, ok: true},
		{value: "12pt", want: 15.996, ok: true},
		{value: "100%", want: 16, ok: true},
		{value: "1in", want: 96, ok: true},
		{value: "18", want: 18, ok: true},
		{value: " 0.5EM ", want: 8, ok: true},
		{value: "normal", ok: false},
		{value: "auto", ok: false},
		{value: "", ok: false},
		{value: "3vw", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			got, ok := parseLength(tt.value)
			if ok != tt.ok {
				t.Fatalf("parseLength(%q) ok = %v, want %v", tt.value, ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 0.001 {
				t.Errorf("parseLength(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestLengthUnit(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"12px":  "px",
		"1.5em": "em",
		"100%":  "%",
		"16":    "",
		"auto":  "",
	}
	for value, want := range tests {
		if got := lengthUnit(value); got != want {
			t.Errorf("lengthUnit(%q) = %q, want %q", value, got, want)
		}
	}
}

func TestParseDeclarations(t *testing.T) {
	t.Parallel()

	t.Run("parses properties and values", func(t *testing.T) {
		t.Parallel()

		decls := ParseDeclarations("Color: red; background-color:#fff ;font-size: 12px !important")
		if decls["color"] != "red" {
			t.Errorf("color = %q, want red", decls["color"])
		}
		if decls["background-color"] != "#fff" {
			t.Errorf("background-color = %q, want #fff", decls["background-color"])
		}
		if decls["font-size"] != "12px" {
			t.Errorf("font-size = %q, want 12px", decls["font-size"])
		}
	})

	t.Run("keeps multi token values", func(t *testing.T) {
		t.Parallel()

		decls := ParseDeclarations("margin: 0 auto; text-align: justify")
		if decls["margin"] != "0 auto" {
			t.Errorf("margin = %q, want %q", decls["margin"], "0 auto")
		}
		if decls["text-align"] != "justify" {
			t.Errorf("text-align = %q, want justify", decls["text-align"])
		}
	})

	t.Run("empty style", func(t *testing.T) {
		t.Parallel()

		if decls := ParseDeclarations(""); len(decls) != 0 {
			t.Errorf("expected no declarations, got %v", decls)
		}
	})
}

func TestMediaFeatures(t *testing.T) {
	t.Parallel()

	sheet := `
		body { color: black; }
		@media screen and (orientation: portrait) { .a { display: none; } }
		@media (max-width: 600px) { .b { width: 100%; } }
	`
	got := mediaFeatures(sheet)
	if !slices.Contains(got, "orientation:portrait") {
		t.Errorf("expected orientation:portrait in %v", got)
	}
	if slices.Contains(got, "color:black") {
		t.Errorf("declarations outside @media must not be reported: %v", got)
	}
}
