package project

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/decadef20/knip/internal/globs"
)

// GitignoreMatcher aggregates every .gitignore found along a workspace's
// ancestry chain (root down to the workspace itself) into one pattern set,
// matched against workspace-relative paths.
//
// This is the supplemental matcher named in spec.md §4.2 ("Gitignored
// paths are excluded by default unless overridden") but left unspecified
// there; it's deliberately not a full gitignore implementation (no
// directory-only `/` suffix handling, no anchoring nuance; every pattern
// matches a path of that name and everything beneath it) — just enough
// pattern matching, built on the same globs.Pattern machinery as
// project/entry/ignore globs, to honor the common cases.
type GitignoreMatcher struct {
	patterns []globs.Pattern
}

// LoadGitignore reads every .gitignore from repoRoot down to workspaceDir
// (inclusive), returning a matcher for workspace-relative paths.
func LoadGitignore(repoRoot, workspaceDir string) *GitignoreMatcher {
	m := &GitignoreMatcher{}

	rel, err := filepath.Rel(repoRoot, workspaceDir)
	if err != nil {
		rel = "."
	}
	dirs := []string{repoRoot}
	if rel != "." {
		cur := repoRoot
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			cur = filepath.Join(cur, part)
			dirs = append(dirs, cur)
		}
	}

	for _, dir := range dirs {
		data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(strings.NewReader(string(data)))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			line = strings.TrimSuffix(line, "/")
			if !strings.Contains(line, "/") {
				line = "**/" + line
			}
			m.patterns = append(m.patterns, globs.Parse(line), globs.Parse(line+"/**"))
		}
	}
	return m
}

// Ignored reports whether rel (workspace-relative, "/"-separated) matches
// any accumulated gitignore pattern.
func (m *GitignoreMatcher) Ignored(rel string) bool {
	if m == nil {
		return false
	}
	return globs.MatchAny(m.patterns, rel)
}
