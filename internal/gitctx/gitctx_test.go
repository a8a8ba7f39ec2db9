package gitctx

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"main.py", []string{"*.py"}, true},
		{"pkg/main.py", []string{"**/*.py"}, true},
		{"vendor/lib.py", []string{"vendor/**"}, true},
		{"a/node_modules/x.js", []string{"**/node_modules/**"}, true},
		{"src/app.py", []string{"vendor/**"}, false},
		{"config/.env", []string{"**/.env"}, true},
		{"anything/at/all", []string{"**/*"}, true},
		{"main.go", nil, false},
		{"main.go", []string{}, false},
	}
	for _, tt := range tests {
		if got := MatchesAny(tt.path, tt.patterns); got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestFilterFiles(t *testing.T) {
	files := []string{"app.py", "vendor/lib.py", "docs/readme.md", "tests/test_app.py"}
	got := filterFiles(files, Filter{Include: []string{"**/*.py"}, Exclude: []string{"vendor/**"}})
	want := []string{"app.py", "tests/test_app.py"}
	if len(got) != len(want) {
		t.Fatalf("filterFiles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("filterFiles[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := filterFiles(files, Filter{}); len(got) != len(files) {
		t.Errorf("empty filter dropped files: %v", got)
	}
}

// setupTestRepo creates a temp git repo with one commit and makes it the
// working directory for the test.
func setupTestRepo(t *testing.T) (string, func(args ...string)) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("command %v failed: %v\n%s", args, err, out)
		}
	}

	run("git", "init")
	run("git", "checkout", "-b", "main")
	write(t, filepath.Join(dir, "app.py"), "print('hi')\n")
	write(t, filepath.Join(dir, "util.py"), "x = 1\n")
	run("git", "add", "-A")
	run("git", "commit", "-m", "init")

	chdirForTest(t, dir)
	return dir, run
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGetRepoMeta(t *testing.T) {
	dir, _ := setupTestRepo(t)
	meta, err := GetRepoMeta()
	if err != nil {
		t.Fatalf("GetRepoMeta error: %v", err)
	}
	wantRoot, _ := filepath.EvalSymlinks(dir)
	gotRoot, _ := filepath.EvalSymlinks(meta.Root)
	if gotRoot != wantRoot {
		t.Errorf("Root = %q, want %q", gotRoot, wantRoot)
	}
	if meta.Branch != "main" {
		t.Errorf("Branch = %q, want main", meta.Branch)
	}
	if len(meta.Head) != 40 {
		t.Errorf("Head = %q, want a full sha", meta.Head)
	}
}

func TestChangedFiles(t *testing.T) {
	dir, run := setupTestRepo(t)

	write(t, filepath.Join(dir, "app.py"), "print('changed')\n")
	write(t, filepath.Join(dir, "new.py"), "y = 2\n")
	run("git", "add", "new.py")
	write(t, filepath.Join(dir, "util.py"), "x = 2\n")
	run("git", "add", "util.py")
	write(t, filepath.Join(dir, "util.py"), "x = 3\n")

	staged, err := ChangedFiles(ModeStaged, Filter{})
	if err != nil {
		t.Fatalf("ChangedFiles(staged) error: %v", err)
	}
	if len(staged) != 2 || staged[0] != "new.py" || staged[1] != "util.py" {
		t.Errorf("staged = %v, want [new.py util.py]", staged)
	}

	unstaged, err := ChangedFiles(ModeUnstaged, Filter{Exclude: []string{"util.py"}})
	if err != nil {
		t.Fatalf("ChangedFiles(unstaged) error: %v", err)
	}
	if len(unstaged) != 1 || unstaged[0] != "app.py" {
		t.Errorf("unstaged = %v, want [app.py]", unstaged)
	}

	content, err := StagedContent("util.py")
	if err != nil {
		t.Fatalf("StagedContent error: %v", err)
	}
	if content != "x = 2\n" {
		t.Errorf("StagedContent = %q, want index version", content)
	}
}

func TestChangedFiles_SkipsDeletedAndBinary(t *testing.T) {
	dir, run := setupTestRepo(t)
	run("git", "rm", "-q", "util.py")
	if err := os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0, 1, 2, 0, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	run("git", "add", "blob.bin")

	staged, err := ChangedFiles(ModeStaged, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(staged) != 0 {
		t.Errorf("staged = %v, want none", staged)
	}
}

func TestChangedFiles_UnknownMode(t *testing.T) {
	if _, err := ChangedFiles("commit", Filter{}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestHookPath(t *testing.T) {
	setupTestRepo(t)

	path, err := HookPath("pre-commit")
	if err != nil {
		t.Fatalf("HookPath() error = %v", err)
	}
	if filepath.ToSlash(path) != ".git/hooks/pre-commit" {
		t.Errorf("HookPath() = %q", path)
	}
}

func TestHookPath_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	chdirForTest(t, t.TempDir())
	if _, err := HookPath("pre-commit"); err == nil {
		t.Error("expected error outside a repository")
	}
}

// chdirForTest mirrors testing.T.Chdir (Go 1.24+) for older toolchains:
// it changes the working directory and restores it when the test ends.
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
