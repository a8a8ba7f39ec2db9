// Package history keeps a SQLite log of review runs and their per-step
// results so past reviews can be listed and compared.
package history
