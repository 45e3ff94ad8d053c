package dom

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ContainerTag is the top-level content container. Addresses stop below it.
const ContainerTag = "body"

// ErrNotElement is returned when an address is requested for a nil or
// non-element node.
var ErrNotElement = errors.New("node is not an element")

// Segment is one step of a positional address. The root segment has Root
// set and no tag.
type Segment struct {
	Root bool
	Tag  string

	// Rank is 1 + the number of preceding element siblings with the same tag.
	Rank int
}

// Address is the path from the content container down to an element.
// The first segment is always the root marker.
type Address []Segment

// Of derives the positional address of element n.
// Elements outside body, and body itself, have no container ancestor; their
// address runs up to the html element and its selector matches nothing.
func Of(n *html.Node) (Address, error) {
	if n == nil || n.Type != html.ElementNode {
		return nil, ErrNotElement
	}

	var segments []Segment
	for cur := n; ; {
		segments = append(segments, Segment{Tag: cur.Data, Rank: sameTagRank(cur)})

		parent := cur.Parent
		if parent == nil || parent.Type != html.ElementNode || parent.Data == ContainerTag {
			break
		}
		cur = parent
	}
	segments = append(segments, Segment{Root: true})

	// collected bottom-up
	addr := make(Address, len(segments))
	for i, s := range segments {
		addr[len(segments)-1-i] = s
	}
	return addr, nil
}

func sameTagRank(n *html.Node) int {
	rank := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == n.Data {
			rank++
		}
	}
	return rank
}

// Selector translates the address to a CSS selector. The root marker becomes
// the container tag and each segment becomes tag:nth-child(rank). Rank
// counts same-tag siblings only while nth-child counts all element siblings,
// so the selector matches the element only when no differently tagged
// sibling precedes it. Stored element records use the same convention.
func (a Address) Selector() string {
	parts := make([]string, 0, len(a))
	for _, s := range a {
		var part string
		switch {
		case s.Root:
			part = ContainerTag
		case s.Tag != "":
			part = fmt.Sprintf("%s:nth-child(%d)", s.Tag, s.Rank)
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// String renders the address in path form, e.g. //body/div[1]/span[2].
func (a Address) String() string {
	var b strings.Builder
	for _, s := range a {
		if s.Root {
			b.WriteString("//" + ContainerTag)
			continue
		}
		fmt.Fprintf(&b, "/%s[%d]", s.Tag, s.Rank)
	}
	return b.String()
}

// SelectorOf returns the selector for n, or "" if n is not an element.
func SelectorOf(n *html.Node) string {
	addr, err := Of(n)
	if err != nil {
		return ""
	}
	return addr.Selector()
}
