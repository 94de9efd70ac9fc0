// Package status implements the aggregation core: one fan-out pass over
// all probes merged into a schema-complete snapshot.
package status

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/models"
)

// DefaultProbeTimeout bounds each probe invocation within one aggregation
// pass.
const DefaultProbeTimeout = 5 * time.Second

// Probe interfaces. Every implementation is a total function: it returns
// a usable value for every input and never an error — failures inside a
// probe collapse to that probe's documented zero value.
type (
	// HostProbe reports CPU/RAM/disk usage and uptime.
	HostProbe interface {
		Read(ctx context.Context) models.HostStats
	}
	// AgentProbe discovers and labels processes of interest.
	AgentProbe interface {
		List(ctx context.Context) []models.Agent
	}
	// GitProbe reports branch and recent commits.
	GitProbe interface {
		Read(ctx context.Context) models.GitInfo
	}
	// TreeProbe walks the workspace file tree.
	TreeProbe interface {
		Walk(ctx context.Context) *models.Node
	}
	// SessionProbe reports the external AI session's context usage.
	SessionProbe interface {
		Read(ctx context.Context) models.SessionContext
	}
	// JobsProbe lists the external scheduler's jobs.
	JobsProbe interface {
		List(ctx context.Context) []models.Job
	}
	// HeartbeatReader returns the heartbeat blob and last-run time.
	HeartbeatReader interface {
		Read() (raw string, lastRun int64)
	}
)

// Probes bundles every source consulted by one aggregation pass.
type Probes struct {
	Host      HostProbe
	Agents    AgentProbe
	Git       GitProbe
	Tree      TreeProbe
	Session   SessionProbe
	Jobs      JobsProbe
	Heartbeat HeartbeatReader
}

// Aggregator fans out to all probes and merges their outputs. Probes are
// independent, so they run concurrently; the merge happens only after
// every probe has completed or been defaulted.
type Aggregator struct {
	probes  Probes
	timeout time.Duration
	pid     func() int
	log     *slog.Logger
}

// New creates an aggregator. timeout <= 0 falls back to
// DefaultProbeTimeout.
func New(probes Probes, timeout time.Duration, log *slog.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Aggregator{probes: probes, timeout: timeout, pid: os.Getpid, log: log}
}

// Aggregate performs one fan-out-and-merge pass. It always returns a
// snapshot with every key populated; it never returns an error.
func (a *Aggregator) Aggregate(ctx context.Context) models.Snapshot {
	started := time.Now()
	snap := models.Snapshot{
		Uptime: "0h 0m",
		Agents: []models.Agent{},
		Git:    models.GitInfo{Branch: "unknown", Commits: []models.Commit{}},
		Jobs:   []models.Job{},
	}

	// Each goroutine writes a distinct snapshot field, so no locking is
	// needed around the merge.
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(a.probeFn(gCtx, func(ctx context.Context) {
		stats := a.probes.Host.Read(ctx)
		snap.CPUPercent = stats.CPUPercent
		snap.RAMPercent = stats.RAMPercent
		snap.DiskPercent = stats.DiskPercent
		snap.Uptime = stats.Uptime
	}))
	g.Go(a.probeFn(gCtx, func(ctx context.Context) {
		snap.Agents = a.probes.Agents.List(ctx)
	}))
	g.Go(a.probeFn(gCtx, func(ctx context.Context) {
		snap.Git = a.probes.Git.Read(ctx)
	}))
	g.Go(a.probeFn(gCtx, func(ctx context.Context) {
		snap.Files = a.probes.Tree.Walk(ctx)
	}))
	g.Go(a.probeFn(gCtx, func(ctx context.Context) {
		snap.Session = a.probes.Session.Read(ctx)
	}))
	g.Go(a.probeFn(gCtx, func(ctx context.Context) {
		snap.Jobs = a.probes.Jobs.List(ctx)
	}))
	g.Go(a.probeFn(gCtx, func(context.Context) {
		snap.HeartbeatRaw, snap.HeartbeatLastRun = a.probes.Heartbeat.Read()
	}))

	_ = g.Wait()

	// The discovery probe owes us nothing; a visible self entry is this
	// layer's guarantee.
	if len(snap.Agents) == 0 {
		snap.Agents = append(snap.Agents, models.Agent{
			PID:  int32(a.pid()),
			Name: "UI Manager (self)",
		})
	}
	if snap.Files == nil {
		snap.Files = &models.Node{Name: ".", IsDir: true, Path: ".", Children: []*models.Node{}}
	}

	a.log.Debug("aggregation pass complete",
		slog.Duration("elapsed", time.Since(started)))
	return snap
}

// probeFn wraps one probe call with its own deadline and panic isolation,
// returning the nil-error func shape errgroup expects.
func (a *Aggregator) probeFn(ctx context.Context, fn func(context.Context)) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				a.log.Error("probe panicked", slog.Any("panic", r))
			}
		}()
		probeCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		fn(probeCtx)
		return nil
	}
}
