// Package progress tracks the status of review steps within a single run.
//
// Each step moves PENDING -> IN_PROGRESS -> COMPLETED or FAILED, or
// PENDING -> SKIPPED. Only one step may be in progress at a time.
package progress
