package checks

import (
	"encoding/base64"
	"testing"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"

	"github.com/nao1215/pageaudit/internal/model"
)

// exifBlock encodes a minimal EXIF block carrying the given IFD0 tags.
func exifBlock(t *testing.T, tags map[string]string) []byte {
	t.Helper()

	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		t.Fatalf("failed to create ifd mapping: %v", err)
	}
	ib := exif.NewIfdBuilder(im, exif.NewTagIndex(), exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	for name, value := range tags {
		if err := ib.AddStandardWithName(name, value); err != nil {
			t.Fatalf("failed to add tag %s: %v", name, err)
		}
	}
	data, err := exif.NewIfdByteEncoder().EncodeToExif(ib)
	if err != nil {
		t.Fatalf("failed to encode exif: %v", err)
	}
	return data
}

func TestImageCopyrightCheck(t *testing.T) {
	t.Parallel()

	t.Run("skips images without captured bytes", func(t *testing.T) {
		t.Parallel()

		audit := execute(t, NewImageCopyrightCheck(), `<body><img src="https://cdn.example.com/a.jpg"></body>`)
		if len(audit.Issues) != 0 {
			t.Errorf("expected no issues, got %+v", audit.Issues)
		}
	})

	t.Run("reads ownership from captured assets", func(t *testing.T) {
		t.Parallel()

		snapshot := &model.Snapshot{
			URL:    "https://example.com/",
			Markup: `<body><img src="/owned.jpg"><img src="/anonymous.jpg"><img src="/plain.png"></body>`,
			Assets: map[string][]byte{
				"/owned.jpg":     exifBlock(t, map[string]string{"Artist": "Jane Doe"}),
				"/anonymous.jpg": exifBlock(t, map[string]string{"Software": "editor"}),
				"/plain.png":     []byte("not an image"),
			},
		}

		audit := executeSnapshot(t, NewImageCopyrightCheck(), snapshot)
		if len(audit.Issues) != 3 {
			t.Fatalf("expected 3 issues, got %d", len(audit.Issues))
		}
		if issue := findIssue(audit, "Image copyright is present"); issue == nil || issue.Selector != "body img:nth-child(1)" {
			t.Errorf("expected owned image to pass, got %+v", issue)
		}
		if findIssue(audit, "Image copyright is missing") == nil {
			t.Error("expected missing copyright issue")
		}
		if findIssue(audit, "Image metadata could not be read") == nil {
			t.Error("expected unreadable metadata issue")
		}
	})

	t.Run("decodes data urls", func(t *testing.T) {
		t.Parallel()

		src := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(exifBlock(t, map[string]string{"Copyright": "Example Corp"}))
		audit := execute(t, NewImageCopyrightCheck(), `<body><img src="`+src+`"></body>`)
		if len(audit.Issues) != 1 || !audit.Issues[0].Passed() {
			t.Errorf("expected a single pass, got %+v", audit.Issues)
		}
	})
}
