// Package stats aggregates review issues into run statistics.
//
// A Collector counts each issue once, keyed by file, line, column and step.
// Summary reports the per-severity, per-category, per-step and per-file
// breakdowns; KeyFindings produces the raw triage list that the findings
// package layers priorities and recommendations on top of.
package stats
