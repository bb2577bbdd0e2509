package monitoring

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is one sample of the machine a station runs on.
type HostStats struct {
	CPUPercent  float64
	MemUsedPct  float64
	DiskUsedPct float64
	DiskFree    uint64
}

// HostSampler periodically samples CPU, memory and disk usage of the
// station host into Prometheus gauges. Stations are often small boxes at
// a rehearsal venue and a full disk stops the pending store.
type HostSampler struct {
	diskPath     string
	interval     time.Duration
	diskWarnPct  float64
	cpuGauge     prometheus.Gauge
	memGauge     prometheus.Gauge
	diskGauge    prometheus.Gauge
	diskFreeByte prometheus.Gauge

	mu   sync.RWMutex
	last HostStats

	stopCh chan struct{}
	wg     sync.WaitGroup

	// sample functions, replaced in tests
	cpuPercent func() (float64, error)
	memUsedPct func() (float64, error)
	diskUsage  func(path string) (float64, uint64, error)
}

// NewHostSampler registers the host gauges on reg. A nil reg keeps the
// gauges unregistered.
func NewHostSampler(reg prometheus.Registerer, namespace, diskPath string, interval time.Duration) *HostSampler {
	if diskPath == "" {
		diskPath = "/"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	s := &HostSampler{
		diskPath:    diskPath,
		interval:    interval,
		diskWarnPct: 90,
		cpuGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "host_cpu_percent",
			Help: "Host CPU usage.",
		}),
		memGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "host_memory_used_percent",
			Help: "Host memory usage.",
		}),
		diskGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "host_disk_used_percent",
			Help: "Usage of the filesystem holding station data.",
		}),
		diskFreeByte: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "host_disk_free_bytes",
			Help: "Free bytes on the filesystem holding station data.",
		}),
		stopCh:     make(chan struct{}),
		cpuPercent: sampleCPU,
		memUsedPct: sampleMemory,
		diskUsage:  sampleDisk,
	}
	if reg != nil {
		reg.MustRegister(s.cpuGauge, s.memGauge, s.diskGauge, s.diskFreeByte)
	}
	return s
}

func (s *HostSampler) Start() {
	s.wg.Add(1)
	go s.run()
	log.Printf("[Monitoring] Host sampler started (every %s, disk %s)", s.interval, s.diskPath)
}

func (s *HostSampler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	log.Println("[Monitoring] Host sampler stopped")
}

func (s *HostSampler) run() {
	defer s.wg.Done()

	s.Sample()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sample()
		case <-s.stopCh:
			return
		}
	}
}

// Sample takes one reading, updates the gauges and returns it. Readings
// that fail keep their previous value.
func (s *HostSampler) Sample() HostStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, err := s.cpuPercent(); err == nil {
		s.last.CPUPercent = v
		s.cpuGauge.Set(v)
	}
	if v, err := s.memUsedPct(); err == nil {
		s.last.MemUsedPct = v
		s.memGauge.Set(v)
	}
	if pct, free, err := s.diskUsage(s.diskPath); err == nil {
		s.last.DiskUsedPct = pct
		s.last.DiskFree = free
		s.diskGauge.Set(pct)
		s.diskFreeByte.Set(float64(free))
		if pct >= s.diskWarnPct {
			log.Printf("[Monitoring] WARNING: %s is %.1f%% full, queued check-ins may fail to persist", s.diskPath, pct)
		}
	} else {
		log.Printf("[Monitoring] Disk usage of %s unavailable: %v", s.diskPath, err)
	}
	return s.last
}

// Last returns the most recent sample.
func (s *HostSampler) Last() HostStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func sampleCPU() (float64, error) {
	percents, err := cpu.Percent(time.Second, false)
	if err != nil || len(percents) == 0 {
		return 0, err
	}
	return percents[0], nil
}

func sampleMemory() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

func sampleDisk(path string) (float64, uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, 0, err
	}
	return usage.UsedPercent, usage.Free, nil
}
