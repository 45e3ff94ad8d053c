package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pageaudit/internal/model"
)

// ErrUnknownFormat is returned by New for an unrecognized output format.
var ErrUnknownFormat = errors.New("unknown report format")

// Format names an output format accepted by New.
type Format string

const (
	// FormatText is the human-readable terminal format.
	FormatText Format = "text"

	// FormatJSON is indented JSON.
	FormatJSON Format = "json"

	// FormatMarkdown is GitHub-flavored Markdown.
	FormatMarkdown Format = "markdown"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *model.CompositeReport) (int, error)
}

// New returns the writer for format, writing to output.
func New(format Format, output io.Writer) (Writer, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatText, "":
		return NewSimpleWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MultiWriter writes one report to several Writers, for example the
// terminal and a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every writer and returns the total bytes
// written. It stops on the first error.
func (m *MultiWriter) Write(report *model.CompositeReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
