// Package monitor samples process memory while the MCP server is running.
// Every tool call may load a dataset of up to the configured sample size, so
// a long-lived server releases memory back to the OS once the heap grows past
// a threshold.
package monitor

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/kyleking/chart-intent/internal/logging"
)

// MemoryStats is one sample of the Go runtime's memory counters
type MemoryStats struct {
	AllocMB        float64   `json:"alloc_mb"`
	SysMB          float64   `json:"sys_mb"`
	NumGC          uint32    `json:"num_gc"`
	GoroutineCount int       `json:"goroutine_count"`
	SampledAt      time.Time `json:"sampled_at"`
}

// Pressure is the share of memory obtained from the OS that is currently allocated
func (s MemoryStats) Pressure() float64 {
	if s.SysMB == 0 {
		return 0
	}

	return min(s.AllocMB/s.SysMB, 1)
}

func (s MemoryStats) String() string {
	return fmt.Sprintf("alloc %.1f MB, sys %.1f MB, %d GCs, %d goroutines",
		s.AllocMB, s.SysMB, s.NumGC, s.GoroutineCount)
}

// MemoryMonitor periodically samples memory and frees it above thresholdMB
type MemoryMonitor struct {
	mu          sync.RWMutex
	stats       MemoryStats
	thresholdMB float64
	releases    int
	logger      *logging.Logger
	stop        chan struct{}
	done        chan struct{}
}

// NewMemoryMonitor returns a stopped monitor. A nil logger discards output.
func NewMemoryMonitor(thresholdMB int64, logger *logging.Logger) *MemoryMonitor {
	if logger == nil {
		logger = logging.Discard()
	}

	return &MemoryMonitor{
		thresholdMB: float64(thresholdMB),
		logger:      logger,
	}
}

// Start samples every interval until Stop is called or ctx is done.
// Calling Start on a running monitor does nothing.
func (m *MemoryMonitor) Start(ctx context.Context, interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stop != nil {
		return
	}

	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go m.loop(ctx, interval, m.stop, m.done)
}

// Stop ends sampling and waits for the loop to exit
func (m *MemoryMonitor) Stop() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.mu.Unlock()

	if stop == nil {
		return
	}

	close(stop)
	<-done
}

// Stats returns the latest sample, zero before the first one
func (m *MemoryMonitor) Stats() MemoryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.stats
}

// Releases counts how often memory was returned to the OS
func (m *MemoryMonitor) Releases() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.releases
}

// Check takes a sample and releases memory when the heap is above the threshold
func (m *MemoryMonitor) Check() MemoryStats {
	stats := sample()

	if m.thresholdMB > 0 && stats.AllocMB > m.thresholdMB {
		m.logger.WithField("memory", stats.String()).Info("heap above threshold, releasing memory")

		debug.FreeOSMemory()
		stats = sample()

		m.mu.Lock()
		m.releases++
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.stats = stats
	m.mu.Unlock()

	m.logger.Debugf("memory: %s", stats)

	return stats
}

func (m *MemoryMonitor) loop(ctx context.Context, interval time.Duration, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check()
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func sample() MemoryStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return MemoryStats{
		AllocMB:        float64(ms.Alloc) / 1024 / 1024,
		SysMB:          float64(ms.Sys) / 1024 / 1024,
		NumGC:          ms.NumGC,
		GoroutineCount: runtime.NumGoroutine(),
		SampledAt:      time.Now(),
	}
}
