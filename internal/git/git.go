// Package git records repository changes as git commits.
package git

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotGitRepo indicates the directory is not a git repository.
var ErrNotGitRepo = errors.New("not a git repository")

// FindRepoRoot finds the root of the git repository containing the given path.
// Returns ErrNotGitRepo if not in a git repository.
func FindRepoRoot(path string) (string, error) {
	cmd := exec.Command("git", "-C", path, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", ErrNotGitRepo
	}
	return strings.TrimSpace(string(output)), nil
}

// IsGitRepo checks if the given path is inside a git repository.
func IsGitRepo(path string) bool {
	_, err := FindRepoRoot(path)
	return err == nil
}

// Init creates a git repository at path.
func Init(path string) error {
	if out, err := exec.Command("git", "init", "-q", path).CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// HasChanges reports whether paths (relative to dir) have uncommitted
// changes, including untracked files.
func HasChanges(dir string, paths ...string) (bool, error) {
	args := append([]string{"-C", dir, "status", "--porcelain", "--"}, paths...)
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// Commit stages paths and commits them with message. It is a no-op when
// nothing changed.
func Commit(dir, message string, paths ...string) error {
	if !IsGitRepo(dir) {
		return ErrNotGitRepo
	}

	changed, err := HasChanges(dir, paths...)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	add := append([]string{"-C", dir, "add", "-A", "--"}, paths...)
	if out, err := exec.Command("git", add...).CombinedOutput(); err != nil {
		return fmt.Errorf("git add: %w: %s", err, strings.TrimSpace(string(out)))
	}

	commit := append([]string{"-C", dir, "commit", "-q", "-m", message, "--"}, paths...)
	if out, err := exec.Command("git", commit...).CombinedOutput(); err != nil {
		return fmt.Errorf("git commit: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
