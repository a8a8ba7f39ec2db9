// Package navigator walks the issues of a review interactively and
// applies, rejects or queues their suggested fixes through a change
// manager.
//
// Session is a terminal-free state machine driven by Symbols. Model
// wraps it in a bubbletea program for terminals, and RunPlain drives it
// from any line-oriented reader.
package navigator
