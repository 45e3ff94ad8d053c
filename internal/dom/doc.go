// Package dom provides the markup primitives shared by every check: parsing,
// attribute and text access, CSS selector queries, and positional addresses
// that relocate an element across independent parses of the same document.
package dom
