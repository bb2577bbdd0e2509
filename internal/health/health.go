package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// Check probes one dependency; nil means healthy.
type Check func(ctx context.Context) error

type HealthChecker struct {
	checks  map[string]Check
	timeout time.Duration
}

type HealthStatus struct {
	Status       string                      `json:"status"`
	Dependencies map[string]DependencyHealth `json:"dependencies"`
	Goroutines   int                         `json:"goroutines"`
	Memory       MemoryStats                 `json:"memory"`
}

type MemoryStats struct {
	AllocMB     float64 `json:"alloc_mb"`
	SysMB       float64 `json:"sys_mb"`
	NumGC       uint32  `json:"num_gc"`
	HostUsedPct float64 `json:"host_used_percent,omitempty"`
}

type DependencyHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make(map[string]Check), timeout: 2 * time.Second}
}

// Register adds a named dependency check
func (h *HealthChecker) Register(name string, check Check) *HealthChecker {
	h.checks[name] = check
	return h
}

func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:       "healthy",
		Dependencies: make(map[string]DependencyHealth, len(h.checks)),
		Goroutines:   runtime.NumGoroutine(),
		Memory:       memoryStats(),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dep := h.run(ctx, h.checks[name])
		if dep.Status != "healthy" {
			status.Status = "unhealthy"
		}
		status.Dependencies[name] = dep
	}
	return status
}

func (h *HealthChecker) run(ctx context.Context, check Check) DependencyHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := check(ctx)
	dep := DependencyHealth{Status: "healthy", ResponseTime: time.Since(start).Milliseconds()}
	if err != nil {
		dep.Status = "unhealthy"
		dep.Error = err.Error()
	}
	return dep
}

func memoryStats() MemoryStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := MemoryStats{
		AllocMB: float64(memStats.Alloc) / 1024 / 1024,
		SysMB:   float64(memStats.Sys) / 1024 / 1024,
		NumGC:   memStats.NumGC,
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.HostUsedPct = vm.UsedPercent
	}
	return stats
}

// Handler serves the health status; unhealthy answers 503.
func (h *HealthChecker) Handler(w http.ResponseWriter, r *http.Request) {
	status := h.CheckBasic(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if status.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}
