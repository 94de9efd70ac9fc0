package probe

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGitReadNotARepo(t *testing.T) {
	g := NewGit(t.TempDir(), testLogger())
	g.run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("fatal: not a git repository")
	}

	info := g.Read(context.Background())
	if info.Branch != "unknown" {
		t.Errorf("branch = %q, want unknown", info.Branch)
	}
	if info.Commits == nil || len(info.Commits) != 0 {
		t.Errorf("commits = %v, want empty slice", info.Commits)
	}
}

func TestGitReadBranchAndLog(t *testing.T) {
	g := NewGit("/repo", testLogger())
	g.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		joined := strings.Join(args, " ")
		if strings.Contains(joined, "rev-parse") {
			return []byte("main\n"), nil
		}
		return []byte("fix: handle a|b in subjects@@2 hours ago\n" +
			"docs: readme@@3 days ago"), nil
	}

	info := g.Read(context.Background())
	if info.Branch != "main" {
		t.Errorf("branch = %q", info.Branch)
	}
	if len(info.Commits) != 2 {
		t.Fatalf("got %d commits", len(info.Commits))
	}
	if info.Commits[0].Message != "fix: handle a|b in subjects" || info.Commits[0].Age != "2 hours ago" {
		t.Errorf("commit[0] = %+v", info.Commits[0])
	}
}

func TestParseLogDropsSeparatorlessLines(t *testing.T) {
	commits := parseLog("good subject@@1 hour ago\nno separator here\nanother@@just now")
	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(commits))
	}
	if commits[1].Message != "another" || commits[1].Age != "just now" {
		t.Errorf("commit[1] = %+v", commits[1])
	}
}

func TestParseLogKeepsSubjectPunctuation(t *testing.T) {
	commits := parseLog("feat(api): add /status | docs@@5 minutes ago")
	if len(commits) != 1 {
		t.Fatalf("got %d commits", len(commits))
	}
	if commits[0].Message != "feat(api): add /status | docs" {
		t.Errorf("message = %q", commits[0].Message)
	}
}

func TestGitOriginURL(t *testing.T) {
	g := NewGit("/repo", testLogger())
	g.run = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("git@example.com:op/proj.git\n"), nil
	}
	if got := g.OriginURL(context.Background(), "/repo/proj"); got != "git@example.com:op/proj.git" {
		t.Errorf("origin = %q", got)
	}

	g.run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("no remote")
	}
	if got := g.OriginURL(context.Background(), "/repo/proj"); got != "" {
		t.Errorf("origin = %q, want empty", got)
	}
}
