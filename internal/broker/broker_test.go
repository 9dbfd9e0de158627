package broker

import (
	"context"
	"sync"
	"testing"
	"time"

	"ripple/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	snapshots []interface{}
}

func (r *recorder) deliver(v interface{}) {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, v)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *recorder) last() interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

// loadKeys snapshots the set of child keys under a collection.
func loadKeys(st store.Store, prefix string) Loader {
	return func(ctx context.Context) (interface{}, error) {
		children, err := st.List(ctx, prefix)
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(children))
		for k := range children {
			keys = append(keys, k)
		}
		return keys, nil
	}
}

func TestBrokerInitialSnapshotEvenWhenEmpty(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()
	b := New(st)

	rec := &recorder{}
	unsubscribe := b.Subscribe("posts", loadKeys(st, "posts"), rec.deliver)
	defer unsubscribe()

	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, rec.last())
}

func TestBrokerDeliversFreshSnapshotAfterChange(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	defer st.Close()
	b := New(st)

	rec := &recorder{}
	unsubscribe := b.Subscribe("posts", loadKeys(st, "posts"), rec.deliver)
	defer unsubscribe()

	assert.Eventually(t, func() bool { return rec.count() >= 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, st.Write(ctx, "posts/p1", []byte(`{}`)))

	assert.Eventually(t, func() bool {
		keys, ok := rec.last().([]string)
		return ok && len(keys) == 1 && keys[0] == "p1"
	}, time.Second, 5*time.Millisecond)

	// A write outside the prefix produces nothing new once settled.
	settled := rec.count()
	require.NoError(t, st.Write(ctx, "vibes/v1", []byte(`{}`)))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, rec.count())
}

func TestBrokerCoalescesRapidChanges(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	defer st.Close()
	b := New(st)

	rec := &recorder{}
	unsubscribe := b.Subscribe("posts", loadKeys(st, "posts"), rec.deliver)
	defer unsubscribe()

	for i := 0; i < 25; i++ {
		require.NoError(t, st.Write(ctx, "posts/p1", []byte(`{}`)))
	}

	// The final snapshot always reflects the last change; intermediate
	// loads may be skipped.
	assert.Eventually(t, func() bool {
		keys, ok := rec.last().([]string)
		return ok && len(keys) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestBrokerUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	defer st.Close()
	b := New(st)

	rec := &recorder{}
	unsubscribe := b.Subscribe("posts", loadKeys(st, "posts"), rec.deliver)

	assert.Eventually(t, func() bool { return rec.count() >= 1 }, time.Second, 5*time.Millisecond)

	unsubscribe()
	unsubscribe() // safe to call twice

	settled := rec.count()
	require.NoError(t, st.Write(ctx, "posts/p1", []byte(`{}`)))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, rec.count())
}

func TestBrokerResyncForcesSnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()
	b := New(st)

	rec := &recorder{}
	unsubscribe := b.Subscribe("posts", loadKeys(st, "posts"), rec.deliver)
	defer unsubscribe()

	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	b.Resync()

	assert.Eventually(t, func() bool { return rec.count() >= 2 }, time.Second, 5*time.Millisecond)
}
