package gitctx

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Mode selects which working-tree changes to list.
type Mode string

const (
	ModeStaged   Mode = "staged"
	ModeUnstaged Mode = "unstaged"
)

// Filter restricts changed files by glob.
type Filter struct {
	Include []string
	Exclude []string
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta() (RepoMeta, error) {
	root, err := gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput("rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// HookPath returns the path git uses for the named hook. It honours
// core.hooksPath and worktrees.
func HookPath(name string) (string, error) {
	out, err := gitOutput("rev-parse", "--git-path", "hooks/"+name)
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ChangedFiles lists added, copied, modified and renamed files for mode,
// relative to the repository root, sorted. Deleted and binary files are
// left out.
func ChangedFiles(mode Mode, f Filter) ([]string, error) {
	args := []string{"diff", "--name-only", "--diff-filter=ACMR"}
	switch mode {
	case ModeStaged:
		args = append(args, "--cached")
	case ModeUnstaged:
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	out, err := gitOutput(args...)
	if err != nil {
		return nil, fmt.Errorf("git diff (%s): %w", mode, err)
	}
	files := filterFiles(splitLines(out), f)

	var result []string
	for _, p := range files {
		if isBinary(mode, p) {
			continue
		}
		result = append(result, p)
	}
	sort.Strings(result)
	return result, nil
}

// StagedContent returns the index version of path, which is what a
// commit would record.
func StagedContent(path string) (string, error) {
	out, err := gitOutput("show", ":"+filepath.ToSlash(path))
	if err != nil {
		return "", fmt.Errorf("git show :%s: %w", path, err)
	}
	return out, nil
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func filterFiles(files []string, f Filter) []string {
	var result []string
	for _, p := range files {
		if len(f.Include) > 0 && !MatchesAny(p, f.Include) {
			continue
		}
		if MatchesAny(p, f.Exclude) {
			continue
		}
		result = append(result, p)
	}
	return result
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "**/*" || pattern == "**" {
			return true
		}
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			clean := strings.TrimPrefix(dir, "**/")
			if strings.HasPrefix(path, clean+"/") || strings.Contains(path, "/"+clean+"/") {
				return true
			}
			continue
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

// isBinary detects whether a changed file is binary using --numstat.
// Binary files show "-\t-\t" for added/removed lines.
func isBinary(mode Mode, path string) bool {
	args := []string{"diff", "--numstat"}
	if mode == ModeStaged {
		args = append(args, "--cached")
	}
	out, _ := gitOutput(append(args, "--", path)...)
	return strings.HasPrefix(strings.TrimSpace(out), "-\t-\t")
}

func gitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
