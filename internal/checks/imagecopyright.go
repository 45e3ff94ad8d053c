package checks

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

// ownershipTags are the EXIF tags that name an image's owner.
var ownershipTags = map[string]bool{"Copyright": true, "Artist": true}

// ImageCopyrightCheck reads the EXIF metadata of captured images and verifies
// that it names a copyright holder or artist. Images whose bytes were not
// captured are skipped.
type ImageCopyrightCheck struct {
	meta
}

// NewImageCopyrightCheck creates the check.
func NewImageCopyrightCheck() *ImageCopyrightCheck {
	return &ImageCopyrightCheck{meta: meta{
		name:        model.AuditNameImageCopyright,
		category:    model.CategoryContent,
		subcategory: model.SubcategoryUnknown,
		scored:      true,
		rationale:   "Images without ownership metadata are hard to license and easy to misuse.",
	}}
}

// Execute implements Check.
func (c *ImageCopyrightCheck) Execute(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.Audit, error) {
	doc, err := parse(snapshot, record)
	if err != nil {
		return nil, err
	}

	var issues []model.Issue
	for _, img := range doc.All("img[src]") {
		src := strings.TrimSpace(dom.Attr(img, "src"))
		data, ok := imageBytes(snapshot, src)
		if !ok {
			continue
		}

		owner, err := imageOwner(data)
		var f finding
		switch {
		case err != nil:
			f = failed(img, model.PriorityLow, "Image metadata could not be read",
				"No EXIF metadata was found in "+shortSource(src)+".",
				"Embed Copyright or Artist EXIF tags in published images.", "")
		case owner == "":
			f = failed(img, model.PriorityLow, "Image copyright is missing",
				"The EXIF metadata of "+shortSource(src)+" names no copyright holder or artist.",
				"Embed Copyright or Artist EXIF tags in published images.", "")
		default:
			f = passed(img, "Image copyright is present", "The image metadata names "+owner+".", "")
		}
		issues = append(issues, f.issue(c.category, "content", "images"))
	}
	return c.audit(snapshot, issues)
}

// imageBytes returns the captured bytes of src, decoding data: URLs inline.
func imageBytes(snapshot *model.Snapshot, src string) ([]byte, bool) {
	if data, ok := snapshot.Assets[src]; ok && len(data) > 0 {
		return data, true
	}
	if !strings.HasPrefix(src, "data:") {
		return nil, false
	}
	header, payload, found := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !found {
		return nil, false
	}
	if !strings.HasSuffix(header, ";base64") {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, false
		}
		return []byte(decoded), true
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	return data, true
}

// imageOwner returns the first non-empty ownership tag in the image's EXIF
// block, or "" when the block names no owner.
func imageOwner(data []byte) (string, error) {
	raw, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return "", err
		}
		return "", fmt.Errorf("failed to extract exif: %w", err)
	}
	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read exif tags: %w", err)
	}
	for _, tag := range tags {
		if ownershipTags[tag.TagName] {
			if v := strings.TrimSpace(strings.Trim(tag.Formatted, "[]\"")); v != "" {
				return tag.TagName + " " + v, nil
			}
		}
	}
	return "", nil
}

func shortSource(src string) string {
	if strings.HasPrefix(src, "data:") {
		return "an inline image"
	}
	return src
}
