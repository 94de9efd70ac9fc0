package probe

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/models"
)

// logSeparator sits between the commit subject and its relative age in the
// pretty format. Chosen because "@@" is vanishingly rare in subject lines;
// "|" breaks on perfectly ordinary commit messages.
const logSeparator = "@@"

const commitLimit = 5

// runner executes a command and returns its stdout. Injected so tests can
// fake git without a repository.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Git reads branch and recent-commit metadata from a repository via
// read-only git invocations. Arguments are always passed as an argv list,
// never through a shell.
type Git struct {
	root string
	run  runner
	log  *slog.Logger
}

// NewGit creates the version-control probe for the repository at root.
func NewGit(root string, log *slog.Logger) *Git {
	return &Git{root: root, run: execRunner, log: log}
}

// Read returns the current branch and the last commits. On any failure
// (not a repository, git missing, timeout) it returns
// {branch: "unknown", commits: []} and never an error.
func (g *Git) Read(ctx context.Context) models.GitInfo {
	info := models.GitInfo{Branch: "unknown", Commits: []models.Commit{}}

	branch, err := g.run(ctx, "git", "-C", g.root, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		g.log.Debug("git branch query failed", slog.String("error", err.Error()))
		return info
	}
	if b := strings.TrimSpace(string(branch)); b != "" {
		info.Branch = b
	}

	out, err := g.run(ctx, "git", "-C", g.root, "log", "-5",
		"--pretty=format:%s"+logSeparator+"%ar")
	if err != nil {
		g.log.Debug("git log query failed", slog.String("error", err.Error()))
		return info
	}
	info.Commits = parseLog(string(out))
	return info
}

// OriginURL returns the origin remote URL for dir, or "" when there is
// none. Used by the projects listing.
func (g *Git) OriginURL(ctx context.Context, dir string) string {
	out, err := g.run(ctx, "git", "-C", dir, "remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// parseLog splits pretty-format output into commits. Lines missing the
// separator are dropped rather than guessed at.
func parseLog(out string) []models.Commit {
	commits := []models.Commit{}
	for _, line := range strings.Split(out, "\n") {
		msg, age, ok := strings.Cut(line, logSeparator)
		if !ok {
			continue
		}
		commits = append(commits, models.Commit{Message: msg, Age: age})
		if len(commits) == commitLimit {
			break
		}
	}
	return commits
}
