package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pageaudit/internal/model"
)

func ptr(f float64) *float64 { return &f }

// createTestReport builds a composite report with one failing and one passing audit.
func createTestReport() *model.CompositeReport {
	return &model.CompositeReport{
		RecordID: "rec-1",
		URL:      "https://example.com/",
		Status:   model.StatusInProgress,
		Categories: []model.CategoryReport{
			{
				Category:      model.CategoryAccessibility,
				Score:         ptr(0.5),
				Progress:      0.25,
				PointsAwarded: 1,
				PointsMax:     2,
			},
			{Category: model.CategoryAesthetics, Progress: 0},
		},
		Audits: []*model.Audit{
			{
				Name:     model.AuditNameAltText,
				Category: model.CategoryAccessibility,
				Scored:   true,
				Issues: []model.Issue{
					{
						Priority:       model.PriorityHigh,
						Title:          "Image is missing alt text",
						Description:    "Screen readers cannot describe the image.",
						Recommendation: "Add an alt attribute",
						ComplianceRef:  "WCAG 2.1 Section 1.1.1 - Non-text Content",
						Selector:       "body img:nth-child(1)",
						PointsMax:      1,
					},
					{Title: "Image has alt text", PointsAwarded: 1, PointsMax: 1},
				},
			},
			{
				Name:     model.AuditNameEncrypted,
				Category: model.CategoryInformationArchitecture,
				Issues: []model.Issue{
					{Priority: model.PriorityMedium, Title: "Page is not served over https", PointsMax: 1},
				},
			},
		},
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Summarize(createTestReport())
	if s.High != 1 || s.Medium != 1 || s.Low != 0 {
		t.Errorf("counts = %d/%d/%d, want 1/1/0", s.High, s.Medium, s.Low)
	}
	if s.Passed != 1 {
		t.Errorf("Passed = %d, want 1", s.Passed)
	}
	if s.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", s.Failed())
	}
	high := s.Findings(model.PriorityHigh)
	if len(high) != 1 || high[0].Audit != model.AuditNameAltText {
		t.Errorf("high findings = %+v", high)
	}

	t.Run("failed issue without priority is grouped as low", func(t *testing.T) {
		t.Parallel()

		r := &model.CompositeReport{Audits: []*model.Audit{{
			Name:   model.AuditNameFont,
			Scored: true,
			Issues: []model.Issue{{Title: "x", PointsMax: 1}},
		}}}
		s := Summarize(r)
		if s.Low != 1 || len(s.Findings(model.PriorityLow)) != 1 {
			t.Errorf("Low = %d, findings = %v", s.Low, s.Findings(model.PriorityLow))
		}
	})
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"INFORMATION_ARCHITECTURE": "Information Architecture",
		"ALT_TEXT":                 "Alt Text",
		"CONTENT":                  "Content",
	}
	for in, want := range tests {
		if got := displayName(in); got != want {
			t.Errorf("displayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and categories", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, want := range []string{"PAGEAUDIT REPORT", "https://example.com/", "rec-1", "in progress", "Accessibility", "50%", "n/a"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes findings by priority", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "[!!] HIGH") || !strings.Contains(out, "Image is missing alt text") {
			t.Error("expected high priority finding")
		}
		if strings.Contains(out, "Description:") {
			t.Error("description should only appear in verbose mode")
		}
		if strings.Contains(out, "[-] LOW") {
			t.Error("empty priority group should be hidden")
		}
	})

	t.Run("verbose and show empty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true), WithShowEmpty(true))
		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "Description: Screen readers") {
			t.Error("expected description in verbose mode")
		}
		if !strings.Contains(out, "Reference: WCAG 2.1 Section 1.1.1") {
			t.Error("expected compliance reference in verbose mode")
		}
		if !strings.Contains(out, "[-] LOW") {
			t.Error("expected empty low group with show empty")
		}
	})

	t.Run("returns bytes written", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("n = %d, buffer holds %d", n, buf.Len())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output round-trips", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got["execution_status"] != "inProgress" {
			t.Errorf("execution_status = %v", got["execution_status"])
		}
		if strings.Contains(strings.TrimSpace(buf.String()), "\n") {
			t.Error("compact output should be a single line")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"record_id\": \"rec-1\"") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# PageAudit Report",
		"## Category Scores",
		"Information Architecture",
		"pie",
		"[!CAUTION]",
		"### 🔴 High",
		"Image is missing alt text",
		"<details>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected markdown to contain %q", want)
		}
	}

	t.Run("no findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := &model.CompositeReport{RecordID: "r", URL: "u", Status: model.StatusComplete}
		if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "All checks passed.") {
			t.Error("expected all-passed message")
		}
		if strings.Contains(buf.String(), "mermaid") {
			t.Error("pie chart should be omitted without issues")
		}
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		want   string
	}{
		{FormatText, "*report.SimpleWriter"},
		{"", "*report.SimpleWriter"},
		{FormatJSON, "*report.JSONWriter"},
		{"MARKDOWN", "*report.MarkdownWriter"},
		{"md", "*report.MarkdownWriter"},
	}
	for _, tt := range tests {
		w, err := New(tt.format, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New(%q) error: %v", tt.format, err)
		}
		if got := typeName(w); got != tt.want {
			t.Errorf("New(%q) = %s, want %s", tt.format, got, tt.want)
		}
	}

	if _, err := New("xml", &bytes.Buffer{}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("New(xml) error = %v, want ErrUnknownFormat", err)
	}
}

func typeName(w Writer) string {
	switch w.(type) {
	case *SimpleWriter:
		return "*report.SimpleWriter"
	case *JSONWriter:
		return "*report.JSONWriter"
	case *MarkdownWriter:
		return "*report.MarkdownWriter"
	default:
		return "unknown"
	}
}

type errWriter struct{}

func (errWriter) Write(*model.CompositeReport) (int, error) { return 0, errors.New("boom") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every writer", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		n, err := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b)).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != a.Len()+b.Len() {
			t.Errorf("n = %d, want %d", n, a.Len()+b.Len())
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var b bytes.Buffer
		_, err := NewMultiWriter(errWriter{}, NewJSONWriter(&b)).Write(createTestReport())
		if err == nil {
			t.Fatal("expected error")
		}
		if b.Len() != 0 {
			t.Error("later writers should not run after an error")
		}
	})
}
