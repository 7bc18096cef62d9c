// Package sysinfo reports host telemetry for the admin system panel.
// It uses gopsutil for cross-platform system telemetry.
package sysinfo

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
)

// Snapshot is one reading of the host. Fields that could not be read are
// left zero and the reason is appended to Warnings.
type Snapshot struct {
	Hostname      string    `json:"hostname"`
	OS            string    `json:"os"`
	Platform      string    `json:"platform"`
	Uptime        string    `json:"uptime"`
	BootTime      time.Time `json:"boot_time,omitempty"`
	Processes     uint64    `json:"processes"`
	Goroutines    int       `json:"goroutines"`
	CPUPercent    float64   `json:"cpu_percent"`
	CPUCount      int       `json:"cpu_count"`
	MemUsed       uint64    `json:"mem_used"`
	MemTotal      uint64    `json:"mem_total"`
	MemPercent    float64   `json:"mem_percent"`
	MemHuman      string    `json:"mem_human"`
	DiskPath      string    `json:"disk_path"`
	DiskUsed      uint64    `json:"disk_used"`
	DiskTotal     uint64    `json:"disk_total"`
	DiskPercent   float64   `json:"disk_percent"`
	DiskHuman     string    `json:"disk_human"`
	RxBytesPerSec int64     `json:"rx_bytes_per_sec"`
	TxBytesPerSec int64     `json:"tx_bytes_per_sec"`
	CollectedAt   time.Time `json:"collected_at"`
	Warnings      []string  `json:"warnings,omitempty"`
}

// Collector takes snapshots. It remembers network counters between calls to
// report throughput, so reuse one Collector.
type Collector struct {
	// CPUInterval is how long the CPU sample runs; zero compares against the
	// previous call instead of blocking.
	CPUInterval time.Duration
	DiskPath    string

	mu          sync.Mutex
	prevRx      uint64
	prevTx      uint64
	prevTime    time.Time
	initialized bool
}

// NewCollector creates a ready-to-use Collector.
func NewCollector() *Collector {
	return &Collector{CPUInterval: 200 * time.Millisecond, DiskPath: rootPath()}
}

func rootPath() string {
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/"
}

// Collect gathers the current system snapshot.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := &Snapshot{
		OS:          runtime.GOOS,
		Goroutines:  runtime.NumGoroutine(),
		CPUCount:    runtime.NumCPU(),
		DiskPath:    c.DiskPath,
		CollectedAt: time.Now().UTC(),
	}
	warn := func(what string, err error) {
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("%s: %v", what, err))
	}

	if h, err := os.Hostname(); err == nil {
		snap.Hostname = h
	} else {
		warn("hostname", err)
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		snap.Platform = platform(info)
		snap.Processes = info.Procs
		snap.BootTime = time.Unix(int64(info.BootTime), 0).UTC()
		snap.Uptime = strings.TrimSpace(humanize.RelTime(snap.BootTime, snap.CollectedAt, "", ""))
	} else {
		warn("host", err)
	}

	if pcts, err := cpu.PercentWithContext(ctx, c.CPUInterval, false); err == nil && len(pcts) > 0 {
		snap.CPUPercent = round1(pcts[0])
	} else if err != nil {
		warn("cpu", err)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemUsed, snap.MemTotal = vm.Used, vm.Total
		snap.MemPercent = round1(vm.UsedPercent)
		snap.MemHuman = usage(vm.Used, vm.Total)
	} else {
		warn("memory", err)
	}

	if du, err := disk.UsageWithContext(ctx, c.DiskPath); err == nil {
		snap.DiskUsed, snap.DiskTotal = du.Used, du.Total
		snap.DiskPercent = round1(du.UsedPercent)
		snap.DiskHuman = usage(du.Used, du.Total)
	} else {
		warn("disk", err)
	}

	rx, tx, err := c.netBandwidth(ctx)
	if err != nil {
		warn("network", err)
	}
	snap.RxBytesPerSec, snap.TxBytesPerSec = rx, tx

	return snap, nil
}

// ─── helpers ──────────────────────────────────────────────────────────────────

// platform returns a descriptive OS version string, e.g. "debian 12.5".
func platform(info *host.InfoStat) string {
	if info.Platform == "" {
		return info.OS
	}
	if info.PlatformVersion != "" {
		return fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
	}
	return info.Platform
}

// usage renders "1.2 GB / 8.0 GB".
func usage(used, total uint64) string {
	return fmt.Sprintf("%s / %s", humanize.Bytes(used), humanize.Bytes(total))
}

func round1(f float64) float64 {
	return float64(int64(f*10+0.5)) / 10
}

// netBandwidth computes bytes/s since the last call using IOCounters deltas.
// The first call only records a baseline.
func (c *Collector) netBandwidth(ctx context.Context) (rxBps, txBps int64, err error) {
	stats, err := psnet.IOCountersWithContext(ctx, false) // aggregate all interfaces
	if err != nil {
		return 0, 0, err
	}
	if len(stats) == 0 {
		return 0, 0, nil
	}
	now := time.Now()
	curRx := stats[0].BytesRecv
	curTx := stats[0].BytesSent

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		rxBps = rate(c.prevRx, curRx, now.Sub(c.prevTime))
		txBps = rate(c.prevTx, curTx, now.Sub(c.prevTime))
	}
	c.prevRx, c.prevTx, c.prevTime = curRx, curTx, now
	c.initialized = true
	return rxBps, txBps, nil
}

// rate is the per-second delta between two counter readings. A counter that
// went backwards (reset on reboot) yields 0.
func rate(prev, cur uint64, dt time.Duration) int64 {
	if dt <= 0 || cur < prev {
		return 0
	}
	return int64(float64(cur-prev) / dt.Seconds())
}
