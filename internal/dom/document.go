package dom

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Document is a parsed markup tree.
type Document struct {
	root *html.Node
}

// Parse parses an HTML document. The parser is lenient: malformed markup
// still yields a tree with html, head and body elements.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString parses markup held in a string.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the body element, or nil if there is none.
func (d *Document) Body() *html.Node {
	return d.First("body")
}

// HTML returns the html element, or nil if there is none.
func (d *Document) HTML() *html.Node {
	return d.First("html")
}

// Title returns the trimmed text of the first title element.
func (d *Document) Title() string {
	if n := d.First("title"); n != nil {
		return Text(n)
	}
	return ""
}

// All returns every element matching selector, in document order.
func (d *Document) All(selector string) []*html.Node {
	return QueryAll(d.root, selector)
}

// First returns the first element matching selector, or nil.
func (d *Document) First(selector string) *html.Node {
	return Query(d.root, selector)
}

var selectorCache sync.Map

func compile(selector string) cascadia.Selector {
	if cached, ok := selectorCache.Load(selector); ok {
		return cached.(cascadia.Selector)
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		// Invalid selectors are programming errors in the checks; callers
		// that accept user-supplied selectors use Compile first.
		panic(fmt.Sprintf("dom: invalid selector %q: %v", selector, err))
	}
	selectorCache.Store(selector, sel)
	return sel
}

// Compile validates a selector string.
func Compile(selector string) error {
	_, err := cascadia.Compile(selector)
	return err
}

// QueryAll returns the descendants of n (and n itself) matching selector.
func QueryAll(n *html.Node, selector string) []*html.Node {
	if n == nil {
		return nil
	}
	return compile(selector).MatchAll(n)
}

// Query returns the first node under n matching selector, or nil.
func Query(n *html.Node, selector string) *html.Node {
	if n == nil {
		return nil
	}
	return compile(selector).MatchFirst(n)
}

// Attr returns the value of an attribute, or "" if it is absent or n is nil.
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// HasAttr reports whether the attribute is present, even if empty.
func HasAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

// Text returns the whitespace-normalized text of n and its descendants.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteString(" ")
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// RawText returns the unnormalized text children of n, e.g. the body of a
// style or script element.
func RawText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// ElementChildren returns the element children of n.
func ElementChildren(n *html.Node) []*html.Node {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, c)
		}
	}
	return children
}

// Walk visits n and its descendants in pre-order, calling fn for every element.
func Walk(n *html.Node, fn func(*html.Node)) {
	if n == nil {
		return
	}
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// Resolve resolves href against base. It returns an error for hrefs that
// do not parse as URLs.
func Resolve(base, href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fmt.Errorf("failed to parse url %q: %w", href, err)
	}
	if base == "" {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url %q: %w", base, err)
	}
	return b.ResolveReference(ref), nil
}
