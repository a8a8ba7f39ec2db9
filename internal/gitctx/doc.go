// Package gitctx lists staged or unstaged changes in a git repository so
// they can be reviewed before commit.
//
// It shells out to git, filters paths by include/exclude glob patterns and
// drops deleted and binary files.
package gitctx
