// Package broker turns store push events into full-collection snapshot
// deliveries. It is the system's sole invalidation primitive: every write
// becomes visible to connected clients through a broker subscription,
// never through polling.
package broker

import (
	"context"
	"strings"
	"sync"

	"ripple/internal/observability"
	"ripple/internal/store"
)

// Loader builds the typed snapshot for one topic. It runs on the
// subscription's own goroutine, once at subscribe time and once after
// every underlying change.
type Loader func(ctx context.Context) (interface{}, error)

// Broker manages per-topic subscriber registries over a Store.
type Broker struct {
	store store.Store

	mu   sync.Mutex
	subs map[*subscription]struct{}
}

// New creates a Broker over st.
func New(st store.Store) *Broker {
	return &Broker{store: st, subs: make(map[*subscription]struct{})}
}

// Subscribe registers deliver for the topic rooted at prefix. The first
// snapshot is produced immediately, even when the topic is empty, then a
// fresh one after every change under prefix. Rapid consecutive changes
// may coalesce into a single reload, but a snapshot reflecting the last
// change is always delivered. The returned function cancels delivery; it
// is idempotent and safe after the topic's last write.
func (b *Broker) Subscribe(prefix string, load Loader, deliver func(interface{})) func() {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		topic:   topicRoot(prefix),
		ctx:     ctx,
		load:    load,
		deliver: deliver,
		dirty:   true, // forces the initial snapshot
	}
	sub.cond = sync.NewCond(&sub.mu)

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	observability.BrokerSubscriptions.Inc()

	stopEvents := b.store.Subscribe(prefix, func(store.Event) {
		sub.markDirty()
	})

	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			stopEvents()
			cancel()
			sub.close()

			b.mu.Lock()
			delete(b.subs, sub)
			b.mu.Unlock()
			observability.BrokerSubscriptions.Dec()
		})
	}
}

// Resync forces a fresh snapshot to every live subscription. Invoked when
// the underlying push channel reports reconnection, so no client can stay
// permanently stale after transient network loss.
func (b *Broker) Resync() {
	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.markDirty()
	}
}

type subscription struct {
	topic   string
	ctx     context.Context
	load    Loader
	deliver func(interface{})

	mu     sync.Mutex
	cond   *sync.Cond
	dirty  bool
	closed bool
}

func (s *subscription) markDirty() {
	s.mu.Lock()
	if !s.closed {
		s.dirty = true
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *subscription) run() {
	for {
		s.mu.Lock()
		for !s.dirty && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.dirty = false
		s.mu.Unlock()

		snapshot, err := s.load(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			observability.GlobalLogger.Error("broker snapshot load failed",
				"topic", s.topic, "error", err.Error())
			continue
		}

		// Closed may have flipped while loading; delivering a stale
		// snapshot after unsubscribe would violate teardown.
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.deliver(snapshot)
		observability.BrokerSnapshotsTotal.WithLabelValues(s.topic).Inc()
	}
}

func topicRoot(prefix string) string {
	if i := strings.IndexByte(prefix, '/'); i >= 0 {
		return prefix[:i]
	}
	return prefix
}
