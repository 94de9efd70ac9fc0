// Package probe contains the independent read-only probes consulted by the
// status aggregator. Every probe is a total function: it always returns a
// usable value and never lets an error escape its own boundary.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/models"
)

// Host collects CPU, RAM, and disk usage plus host uptime.
type Host struct {
	diskPath string
	log      *slog.Logger
}

// NewHost creates the host-metrics probe. diskPath is the mount point
// whose usage is reported (normally "/").
func NewHost(diskPath string, log *slog.Logger) *Host {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Host{diskPath: diskPath, log: log}
}

// Read gathers the host gauges. Each sub-collection that fails is logged
// and left at zero; Read itself never fails.
func (h *Host) Read(ctx context.Context) models.HostStats {
	var stats models.HostStats
	stats.Uptime = "0h 0m"

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		h.log.Warn("cpu collection failed", slog.String("error", err.Error()))
	} else if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		h.log.Warn("memory collection failed", slog.String("error", err.Error()))
	} else {
		stats.RAMPercent = vm.UsedPercent
	}

	if usage, err := disk.UsageWithContext(ctx, h.diskPath); err != nil {
		h.log.Warn("disk collection failed",
			slog.String("path", h.diskPath),
			slog.String("error", err.Error()))
	} else {
		stats.DiskPercent = usage.UsedPercent
	}

	if boot, err := host.BootTimeWithContext(ctx); err != nil {
		h.log.Warn("boot time collection failed", slog.String("error", err.Error()))
	} else {
		stats.Uptime = formatUptime(time.Since(time.Unix(int64(boot), 0)))
	}

	return stats
}

func formatUptime(d time.Duration) string {
	seconds := int64(d.Seconds())
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
