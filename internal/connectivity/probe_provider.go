package connectivity

import (
	"context"
	"log"
	"sync"
	"time"
)

// Pinger is anything that can tell whether the server answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProbeProvider polls the server health endpoint and reports online while
// it answers.
type ProbeProvider struct {
	*notifier
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewProbeProvider(pinger Pinger, interval time.Duration) *ProbeProvider {
	timeout := interval / 2
	if timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &ProbeProvider{
		notifier: newNotifier(false),
		pinger:   pinger,
		interval: interval,
		timeout:  timeout,
		stopCh:   make(chan struct{}),
	}
}

// Start probes once synchronously, so Online is meaningful right away,
// then keeps probing in the background.
func (p *ProbeProvider) Start() {
	p.probe()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.probe()
			}
		}
	}()
}

func (p *ProbeProvider) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *ProbeProvider) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	err := p.pinger.Ping(ctx)
	if err != nil && p.Online() {
		log.Printf("[Connectivity] Probe failed: %v", err)
	}
	p.set(err == nil)
}
