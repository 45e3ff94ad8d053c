// Package orchestrator drives an ordered list of checks against one snapshot.
//
// A run claims each check on the audit record before executing it, so checks
// already completed by an earlier run are skipped and two concurrent runs
// against the same record never execute the same check twice. A check that
// returns an error or panics is reported as a failure event and left
// unclaimed; the run carries on with the remaining checks.
//
// Progress events are published after every attempted check with a fraction
// that never decreases, and a final event at 1.0 closes the run. The
// composite report is then computed from every audit stored for the record.
package orchestrator
