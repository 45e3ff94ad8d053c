// Package model defines the data shared by checks, the orchestrator, the
// store and the report writers.
//
// The main types are:
//   - Snapshot: captured markup plus per-element computed styles
//   - Issue: one finding with awarded and maximum points
//   - Audit: the issues produced by one check, with folded point totals
//   - AuditRecord: the resumable set of completed checks for a snapshot
//   - CompositeReport: per-category score and progress
//
// Priority, Category, Subcategory and AuditName are closed enumerations that
// encode as their upper-case names in JSON, YAML and SQL.
package model
