package checks

import (
	"slices"

	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/scoring"
)

// Options configures the default check list.
type Options struct {
	// Prober probes link destinations. Nil disables reachability probing.
	Prober LinkProber

	// Disabled names checks to leave out of the list.
	Disabled []model.AuditName

	// EnableImageCopyright adds the EXIF copyright check. Decoding every
	// captured image can be slow on image heavy pages.
	EnableImageCopyright bool
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		EnableImageCopyright: true,
	}
}

// Default returns the ordered list of built-in checks. Order only affects
// how progress reads; checks are independent of each other.
func Default(opts ...func(*Options)) []Check {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	all := []Check{
		// Information architecture
		NewLinksCheck(options.Prober),
		NewTitlesCheck(),
		NewMetadataCheck(),
		NewEncryptedCheck(),

		// Accessibility
		NewHeaderStructureCheck(),
		NewTableStructureCheck(),
		NewFormStructureCheck(),
		NewOrientationCheck(),
		NewInputPurposeCheck(),
		NewIdentifyPurposeCheck(),
		NewUseOfColorCheck(),
		NewAudioControlCheck(),
		NewReflowCheck(),
		NewVisualPresentationCheck(),
		NewTextSpacingCheck(),
		NewPageLanguageCheck(),
		NewListStructureCheck(),
		NewEmphasisCheck(),
		NewKeyboardAccessibleCheck(),
		NewInputLabelCheck(),

		// Content
		NewAltTextCheck(),
		NewParagraphingCheck(),
	}
	if options.EnableImageCopyright {
		all = append(all, NewImageCopyrightCheck())
	}

	list := make([]Check, 0, len(all))
	for _, c := range all {
		if slices.Contains(options.Disabled, c.Name()) {
			continue
		}
		list = append(list, c)
	}
	return list
}

// Expected maps each category to the names of the scored checks in list
// that belong to it. It is the denominator of category progress.
func Expected(list []Check) scoring.Expected {
	expected := make(scoring.Expected)
	for _, c := range list {
		if !c.Scored() {
			continue
		}
		expected[c.Category()] = append(expected[c.Category()], c.Name())
	}
	return expected
}
