package main

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/pageaudit/internal/checks"
	"github.com/nao1215/pageaudit/internal/config"
	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/report"
)

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.ProbeLinks = false
	cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{}}
	return cfg
}

func containsCheck(list []checks.Check, name model.AuditName) bool {
	for _, c := range list {
		if c.Name() == name {
			return true
		}
	}
	return false
}

func TestHostOf(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://Example.com:8443/path": "example.com",
		"http://example.org":            "example.org",
		"file:///tmp/index.html":        "",
		"./index.html":                  "",
		"%zz":                           "",
	}
	for in, want := range tests {
		if got := hostOf(in); got != want {
			t.Errorf("hostOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckList(t *testing.T) {
	t.Parallel()

	t.Run("merges disabled checks of flags and site", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.DisabledChecks = []string{"links"}
		list, err := checkList(cfg, config.SiteConfig{DisabledChecks: []string{"IMAGE_COPYRIGHT"}}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if containsCheck(list, model.AuditNameLinks) || containsCheck(list, model.AuditNameImageCopyright) {
			t.Error("disabled checks should be left out")
		}
		if !containsCheck(list, model.AuditNameAltText) {
			t.Error("expected other checks to remain")
		}
	})

	t.Run("unknown check name", func(t *testing.T) {
		t.Parallel()

		_, err := checkList(testConfig(), config.SiteConfig{DisabledChecks: []string{"NOPE"}}, nil)
		if !errors.Is(err, config.ErrUnknownCheck) {
			t.Errorf("expected ErrUnknownCheck, got %v", err)
		}
	})

	t.Run("site can turn probing off", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.ProbeLinks = true
		off := false
		list, err := checkList(cfg, config.SiteConfig{ProbeLinks: &off}, http.DefaultClient)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !containsCheck(list, model.AuditNameLinks) {
			t.Error("links check should stay in the list without probing")
		}
	})
}

func TestExpectedFor(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.SiteConfigs.Sites["example.com"] = config.SiteConfig{DisabledChecks: []string{"ALT_TEXT"}}

	expected, err := expectedFor(cfg, "https://example.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range expected[model.CategoryContent] {
		if name == model.AuditNameAltText {
			t.Error("disabled check should not be expected")
		}
	}
	for _, name := range expected[model.CategoryInformationArchitecture] {
		if name == model.AuditNameEncrypted {
			t.Error("unscored check should not be expected")
		}
	}

	other, err := expectedFor(cfg, "https://example.org/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(other[model.CategoryContent]) != len(expected[model.CategoryContent])+1 {
		t.Errorf("expected the site setting to apply only to its host")
	}
}

func TestReportFormat(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	if got := reportFormat(cfg); got != report.FormatText {
		t.Errorf("default format = %q", got)
	}
	cfg.JSONReport = true
	if got := reportFormat(cfg); got != report.FormatJSON {
		t.Errorf("json format = %q", got)
	}
	cfg.JSONReport, cfg.MarkdownReport = false, true
	if got := reportFormat(cfg); got != report.FormatMarkdown {
		t.Errorf("markdown format = %q", got)
	}
}

func TestLoadSiteConfigs(t *testing.T) {
	t.Parallel()

	t.Run("explicit missing file is an error", func(t *testing.T) {
		t.Parallel()

		_, err := loadSiteConfigs(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("explicit file is loaded", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "site.yaml")
		data := []byte("sites:\n  example.com:\n    cookie: a=b\n")
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
		cf, err := loadSiteConfigs(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.ForHost("example.com").Cookie != "a=b" {
			t.Errorf("unexpected site config: %+v", cf.Sites)
		}
	})
}

func TestOpenOutput(t *testing.T) {
	t.Parallel()

	t.Run("stdout without a file", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer
		w, closeFn, err := openOutput(testConfig(), &stdout)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if w != &stdout {
			t.Error("expected stdout writer")
		}
		if err := closeFn(); err != nil {
			t.Errorf("close: %v", err)
		}
	})

	t.Run("creates file and directories", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.ReportFile = filepath.Join(t.TempDir(), "out", "report.md")
		w, closeFn, err := openOutput(cfg, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := w.Write([]byte("hello")); err != nil {
			t.Fatal(err)
		}
		if err := closeFn(); err != nil {
			t.Fatal(err)
		}
		info, err := os.Stat(cfg.ReportFile)
		if err != nil {
			t.Fatalf("expected report file: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}
	})
}
