// Package review contains the shared data model for code review runs.
//
// It defines Issue, StepResult and AggregateResult, the Severity ordinal used
// for triage ordering (critical > high > medium > low > info), and the
// Category values steps report under. Severity ordering always goes through
// SeverityRank, never string comparison.
//
// Rules packs (rules.go) allow callers to override issue severities per
// category, restrict a run to focus categories, and disable individual steps.
package review
