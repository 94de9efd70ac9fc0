package probe

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/models"
)

// LabelRule maps a command line to a human label. Every substring in Match
// must be present. Rules are evaluated in order; the first hit wins.
type LabelRule struct {
	Match []string
	Label string
}

// DefaultRules classifies the processes the dashboard cares about.
var DefaultRules = []LabelRule{
	{Match: []string{"openclaw", "gateway"}, Label: "Core Gateway"},
	{Match: []string{"openclaw-tui"}, Label: "OpenClaw TUI"},
	{Match: []string{"letto"}, Label: "UI Manager"},
	{Match: []string{"node", "index.mjs"}, Label: "Active Session"},
}

// DefaultWatch is the catch-all filter: processes whose command line
// contains one of these substrings but matches no rule are reported as a
// generic active process.
var DefaultWatch = []string{"openclaw", "index.mjs", "letto"}

const genericLabel = "Active Process"

type procEntry struct {
	pid     int32
	cmdline string
}

// Agents discovers and classifies running processes.
type Agents struct {
	rules []LabelRule
	watch []string
	list  func(ctx context.Context) ([]procEntry, error)
	log   *slog.Logger
}

// NewAgents creates the process-discovery probe. Nil rules or watch fall
// back to the defaults.
func NewAgents(rules []LabelRule, watch []string, log *slog.Logger) *Agents {
	if rules == nil {
		rules = DefaultRules
	}
	if watch == nil {
		watch = DefaultWatch
	}
	return &Agents{rules: rules, watch: watch, list: listProcesses, log: log}
}

func listProcesses(ctx context.Context) ([]procEntry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]procEntry, 0, len(procs))
	for _, p := range procs {
		// Kernel threads and exited processes have no readable cmdline.
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil || cmdline == "" {
			continue
		}
		entries = append(entries, procEntry{pid: p.Pid, cmdline: cmdline})
	}
	return entries, nil
}

// List enumerates matching processes, labels them, and deduplicates by
// label (first match wins). Returns an empty slice, never nil, when the
// process table cannot be read.
func (a *Agents) List(ctx context.Context) []models.Agent {
	agents := []models.Agent{}

	entries, err := a.list(ctx)
	if err != nil {
		a.log.Warn("process table unreadable", slog.String("error", err.Error()))
		return agents
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		label, ok := a.classify(e.cmdline)
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		agents = append(agents, models.Agent{PID: e.pid, Name: label})
	}
	return agents
}

func (a *Agents) classify(cmdline string) (string, bool) {
	for _, rule := range a.rules {
		if containsAll(cmdline, rule.Match) {
			return rule.Label, true
		}
	}
	for _, w := range a.watch {
		if strings.Contains(cmdline, w) {
			return genericLabel, true
		}
	}
	return "", false
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
