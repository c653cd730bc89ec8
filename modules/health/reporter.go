// Package health reports process liveness, uptime and memory pressure.
package health

import (
	"runtime"
	"time"
)

// Status is the overall health classification.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Memory usage thresholds, in percent.
const (
	DegradedThreshold  = 75.0
	UnhealthyThreshold = 90.0
)

// Memory is a point-in-time memory sample.
type Memory struct {
	UsedBytes  uint64  `json:"usedBytes"`
	TotalBytes uint64  `json:"totalBytes"`
	Percent    float64 `json:"percent"`
}

// Report is the health snapshot served by the HTTP adapter.
type Report struct {
	Status    Status    `json:"status"`
	Uptime    float64   `json:"uptime"`
	Version   string    `json:"version"`
	Memory    Memory    `json:"memory"`
	Timestamp time.Time `json:"timestamp"`
}

// MemorySampler returns used and total bytes.
type MemorySampler func() (used, total uint64)

// RuntimeMemory samples heap in use against memory obtained from the OS.
func RuntimeMemory() (used, total uint64) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc, ms.Sys
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithMemorySampler replaces the runtime memory sampler.
func WithMemorySampler(s MemorySampler) Option {
	return func(r *Reporter) { r.sample = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

// Reporter builds health reports. It is safe for concurrent use.
type Reporter struct {
	version string
	started time.Time
	sample  MemorySampler
	now     func() time.Time
}

// NewReporter creates a reporter whose uptime starts now.
func NewReporter(version string, opts ...Option) *Reporter {
	r := &Reporter{
		version: version,
		sample:  RuntimeMemory,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.started = r.now()
	return r
}

// Version returns the reported application version.
func (r *Reporter) Version() string {
	return r.version
}

// Uptime returns the time elapsed since the reporter was created.
func (r *Reporter) Uptime() time.Duration {
	return r.now().Sub(r.started)
}

// Report takes a fresh snapshot.
func (r *Reporter) Report() Report {
	used, total := r.sample()
	var pct float64
	if total > 0 {
		pct = float64(used) * 100 / float64(total)
	}

	return Report{
		Status:  Classify(pct),
		Uptime:  r.Uptime().Seconds(),
		Version: r.version,
		Memory: Memory{
			UsedBytes:  used,
			TotalBytes: total,
			Percent:    pct,
		},
		Timestamp: r.now().UTC(),
	}
}

// Classify maps a memory percentage to a status.
func Classify(percent float64) Status {
	switch {
	case percent > UnhealthyThreshold:
		return StatusUnhealthy
	case percent > DegradedThreshold:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}
