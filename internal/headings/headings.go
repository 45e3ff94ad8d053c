// Package headings analyzes the h1-h6 hierarchy of a document.
package headings

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/nao1215/pageaudit/internal/dom"
	"github.com/nao1215/pageaudit/internal/model"
)

// Level1Count classifies how many h1 elements a document has.
type Level1Count int

const (
	// Absent means the document has no h1.
	Absent Level1Count = iota
	// ExactlyOne means the document has a single h1.
	ExactlyOne
	// Multiple means the document has more than one h1.
	Multiple
)

// String returns a readable name for the classification.
func (c Level1Count) String() string {
	switch c {
	case Absent:
		return "absent"
	case ExactlyOne:
		return "exactlyOne"
	case Multiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// Level returns the heading level 1-6 of n, or 0 if n is not a heading.
func Level(n *html.Node) int {
	if n == nil || n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return 0
	}
	if l := int(n.Data[1] - '0'); l >= 1 && l <= 6 {
		return l
	}
	return 0
}

// CountLevel1 classifies the number of h1 elements in doc.
func CountLevel1(doc *dom.Document) (Level1Count, error) {
	if doc == nil {
		return Absent, fmt.Errorf("%w: nil document", model.ErrInvalidInput)
	}
	switch n := len(doc.All("h1")); {
	case n == 0:
		return Absent, nil
	case n == 1:
		return ExactlyOne, nil
	default:
		return Multiple, nil
	}
}

// Group is the ordered headings sharing one nearest non-heading ancestor.
type Group struct {
	Ancestor *html.Node
	Headings []*html.Node
}

// GroupByAncestor walks the body in pre-order and groups every heading under
// its nearest ancestor that is not itself a heading. A heading without such
// an ancestor is its own key. Groups are returned in order of first
// appearance; headings keep document order within each group.
func GroupByAncestor(doc *dom.Document) ([]Group, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", model.ErrInvalidInput)
	}

	index := make(map[*html.Node]int)
	var groups []Group

	dom.Walk(doc.Body(), func(n *html.Node) {
		if Level(n) == 0 {
			return
		}
		key := nearestNonHeadingAncestor(n)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Ancestor: key})
		}
		groups[i].Headings = append(groups[i].Headings, n)
	})

	return groups, nil
}

func nearestNonHeadingAncestor(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			break
		}
		if Level(p) == 0 {
			return p
		}
	}
	return n
}

// Skip is a heading that descends more than one level below the heading
// before it in the same group, e.g. an h3 directly after an h1.
type Skip struct {
	Previous *html.Node
	Heading  *html.Node
	From     int
	To       int
}

// SkippedLevels returns every level skip within the group. Moving up any
// number of levels, or staying at the same level, is never a skip.
func (g Group) SkippedLevels() []Skip {
	var skips []Skip
	for i := 1; i < len(g.Headings); i++ {
		from, to := Level(g.Headings[i-1]), Level(g.Headings[i])
		if to > from+1 {
			skips = append(skips, Skip{
				Previous: g.Headings[i-1],
				Heading:  g.Headings[i],
				From:     from,
				To:       to,
			})
		}
	}
	return skips
}
