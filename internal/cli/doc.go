// Package cli wires together the Cobra command tree for the vaahai binary.
//
// It defines the root command and all subcommands (review, fix, steps,
// backups, history, config, cache, hook, version), binds flags, reads
// configuration, runs the review steps, and returns deterministic exit
// codes for CI gating.
package cli
