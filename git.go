package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// findGitRoot walks up from the working directory to the first directory
// holding a .git entry.
func findGitRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	return findGitRootFrom(dir)
}

func findGitRootFrom(dir string) (string, error) {
	for {
		// .git is a file inside worktrees and submodules
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a git repository")
		}
		dir = parent
	}
}

// isGitIgnored asks git check-ignore from the file's own directory, so files
// from another checkout are judged by that checkout's ignore rules.
func isGitIgnored(filePath string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", filepath.Base(filePath))
	cmd.Dir = filepath.Dir(filePath)
	// Exit status 0 means ignored; 1 (not ignored) and 128 (no repository) do not
	return cmd.Run() == nil
}

// getStagedFiles lists files added, copied, modified or renamed in the index.
// git prints them relative to the repository root, so they are joined onto
// it here.
func getStagedFiles() ([]string, error) {
	gitRoot, err := findGitRoot()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("git", "diff", "--staged", "--name-only", "--diff-filter=ACMR")
	cmd.Dir = gitRoot
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get staged files: %w", err)
	}

	files := parseNameOnly(gitRoot, string(output))
	if len(files) == 0 {
		return nil, fmt.Errorf("no staged files found")
	}

	return files, nil
}

func parseNameOnly(root, output string) []string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	files := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, filepath.Join(root, filepath.FromSlash(line)))
		}
	}
	return files
}
