// Package logging builds the structured logger shared by the CLI and the
// review engine.
package logging
