// Package changes applies suggested fixes to files safely.
//
// Every mutation is preceded by a timestamped backup under the configured
// backup directory, and the original text is validated against the live
// file before anything is rewritten. Applied changes can be undone in LIFO
// order; queued changes are applied per file from the bottom up.
//
// The backup index (backup_history.json) is read once when a Manager is
// created and rewritten in full after each backup or cleanup. It is neither
// locked nor written atomically, so only one process should use a backup
// directory at a time.
//
// Confirmation is an injected Confirmer: PromptConfirmer for interactive
// use, AlwaysConfirm and NeverConfirm for unattended runs, and
// ScriptedConfirmer for tests.
package changes
