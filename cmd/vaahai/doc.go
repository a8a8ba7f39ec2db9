// Vaahai is a local CLI that runs a pipeline of review steps over source
// files and helps apply the fixes they suggest.
//
// It reviews single files, directories, stdin and git changes, emitting
// structured results with deterministic exit codes suitable for CI gating
// and git hooks. The fix command walks the issues interactively and edits
// files with backups and undo.
//
// Usage:
//
//	vaahai review file app.py          # review one file
//	vaahai review dir ./src            # review a directory
//	vaahai review staged               # review staged changes
//	vaahai review stdin --path x.py    # review code from stdin
//	vaahai fix ./src                   # step through suggested fixes
//	vaahai backups restore app.py      # undo a fix from its backup
//	vaahai history list                # past runs
package main
