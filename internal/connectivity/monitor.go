package connectivity

import (
	"log"
	"sync"

	"choiros-backend/internal/metrics"
)

// Monitor tracks online/offline transitions of a Provider and calls onOnline
// once for every transition into online. onOnline runs in its own goroutine
// and its outcome is not observed here.
type Monitor struct {
	provider Provider
	onOnline func()
	metrics  *metrics.Metrics

	mu          sync.RWMutex
	online      bool
	started     bool
	unsubscribe func()
}

func NewMonitor(provider Provider, onOnline func(), m *metrics.Metrics) *Monitor {
	return &Monitor{provider: provider, onOnline: onOnline, metrics: m}
}

// Start reads the initial state and subscribes to changes.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.online = m.provider.Online()
	// subscribe under the lock so no transition slips in between the two
	m.unsubscribe = m.provider.Subscribe(m.handle)
	online := m.online
	m.mu.Unlock()

	m.metrics.SetOnline(online)
	log.Printf("[Connectivity] Monitor started (online: %v)", online)
}

// Stop unsubscribes from the provider.
func (m *Monitor) Stop() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.started = false
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Online returns the last observed state.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

func (m *Monitor) handle(online bool) {
	m.mu.Lock()
	if !m.started || m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	m.mu.Unlock()

	m.metrics.SetOnline(online)
	if !online {
		log.Println("[Connectivity] Went offline")
		return
	}

	log.Println("[Connectivity] Back online, triggering sync")
	if m.onOnline != nil {
		go m.onOnline()
	}
}
