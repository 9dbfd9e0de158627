package store

import "sync"

// fanout is the subscriber registry shared by the store backends. Each
// subscriber gets its own ordered queue and delivery goroutine, so one
// slow callback never blocks writers or other subscribers.
type fanout struct {
	mu   sync.RWMutex
	subs map[int64]*subscriber
	next int64
}

type subscriber struct {
	prefix string
	fn     func(Event)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
}

func newFanout() *fanout {
	return &fanout{subs: make(map[int64]*subscriber)}
}

func (f *fanout) subscribe(prefix string, fn func(Event)) func() {
	s := &subscriber{prefix: prefix, fn: fn}
	s.cond = sync.NewCond(&s.mu)

	f.mu.Lock()
	f.next++
	id := f.next
	f.subs[id] = s
	f.mu.Unlock()

	go s.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			s.close()
		})
	}
}

// publish enqueues ev for every subscriber whose prefix covers ev.Path.
func (f *fanout) publish(ev Event) {
	f.mu.RLock()
	matched := make([]*subscriber, 0, 4)
	for _, s := range f.subs {
		if ev.Kind == EventResync || Under(ev.Path, s.prefix) {
			matched = append(matched, s)
		}
	}
	f.mu.RUnlock()

	for _, s := range matched {
		s.enqueue(ev)
	}
}

// closeAll tears down every subscriber. Used by Store.Close.
func (f *fanout) closeAll() {
	f.mu.Lock()
	subs := make([]*subscriber, 0, len(f.subs))
	for id, s := range f.subs {
		subs = append(subs, s)
		delete(f.subs, id)
	}
	f.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}

func (s *subscriber) enqueue(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, ev)
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *subscriber) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.fn(ev)
	}
}
