// Package checks provides the page audits run by the orchestrator.
//
// Each check is an independent Check that reads a snapshot and returns one
// Audit built from its issues. Checks share no mutable state, so the
// orchestrator may run them in any order or in parallel.
//
// # Categories
//
// ## Information Architecture
//   - Links: href validity, generic link text, optional reachability
//   - Titles, Header structure and Metadata
//   - Encrypted: informational, not scored
//
// ## Accessibility
//   - Table, form, list and emphasis structure
//   - Page language, input purpose and input labels
//   - Text spacing, reflow, use of color, visual presentation
//   - Identify purpose, audio control, orientation, keyboard access
//
// ## Content
//   - Alt text, image copyright and paragraphing
//
// # Scoring
//
// Every issue is scored out of one point unless its check documents
// otherwise. Checks that find nothing to evaluate return an audit without
// issues rather than an error.
//
// # Styles
//
// CSS declarations come from inline style attributes and style blocks,
// tokenized with gorilla/css. Computed styles captured with a snapshot are
// looked up by the element's positional selector (see package dom).
package checks
