// Package cache provides a file-based cache for step results.
//
// Entries are keyed by a SHA-256 hash of the ordered step ids, the file path
// and the content reviewed. Each entry stores the step results along with a
// creation timestamp and a TTL (in seconds). Expired entries are skipped on
// read and removed during cache-clear operations.
//
// The default cache directory is $XDG_CACHE_HOME/vaahai (or the
// OS-appropriate equivalent).
package cache
