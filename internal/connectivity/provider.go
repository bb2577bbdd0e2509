package connectivity

import "sync"

// Provider reports network reachability and notifies on changes.
// Implementations call subscribers only when the state actually changes.
type Provider interface {
	Online() bool
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// notifier is the subscriber bookkeeping shared by the providers.
type notifier struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(bool)
}

func newNotifier(initial bool) *notifier {
	return &notifier{online: initial, subs: make(map[int]func(bool))}
}

func (n *notifier) Online() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online
}

func (n *notifier) Subscribe(fn func(bool)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
		})
	}
}

// set records the new state and, when it changed, calls every subscriber
// outside the lock.
func (n *notifier) set(online bool) {
	n.mu.Lock()
	if n.online == online {
		n.mu.Unlock()
		return
	}
	n.online = online
	subs := make([]func(bool), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// ManualProvider is switched by hand. Stations use it when forced offline,
// tests use it to script transitions.
type ManualProvider struct {
	*notifier
}

func NewManualProvider(online bool) *ManualProvider {
	return &ManualProvider{notifier: newNotifier(online)}
}

// Set changes the state, notifying subscribers on a change.
func (p *ManualProvider) Set(online bool) {
	p.set(online)
}
