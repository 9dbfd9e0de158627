package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	defer st.Close()

	_, err := st.Read(ctx, "posts/p1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Write(ctx, "posts/p1", []byte(`{"id":"p1"}`)))

	got, err := st.Read(ctx, "posts/p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1"}`, string(got))

	require.NoError(t, st.Delete(ctx, "posts/p1"))
	_, err = st.Read(ctx, "posts/p1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent path is a no-op.
	assert.NoError(t, st.Delete(ctx, "posts/p1"))
}

func TestMemoryStoreListDirectChildrenOnly(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	defer st.Close()

	require.NoError(t, st.Write(ctx, "posts/p1", []byte(`{}`)))
	require.NoError(t, st.Write(ctx, "posts/p2", []byte(`{}`)))
	// Grandchildren must not appear in the collection listing.
	require.NoError(t, st.Write(ctx, "posts/p1/likes", []byte(`3`)))

	children, err := st.List(ctx, "posts")
	require.NoError(t, err)
	assert.Len(t, children, 2)
	assert.Contains(t, children, "p1")
	assert.Contains(t, children, "p2")

	counters, err := st.List(ctx, "posts/p1")
	require.NoError(t, err)
	assert.Len(t, counters, 1)
	assert.Equal(t, []byte("3"), counters["likes"])

	empty, err := st.List(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStoreAtomicUpdateConcurrent(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	defer st.Close()

	const writers = 20
	const perWriter = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_, err := st.AtomicUpdate(ctx, "posts/p1/likes", func(cur int64) int64 { return cur + 1 })
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	got, err := st.Read(ctx, "posts/p1/likes")
	require.NoError(t, err)
	assert.Equal(t, "1000", string(got))
}

func TestMemoryStoreAtomicUpdateAbsentLeafStartsAtZero(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	defer st.Close()

	n, err := st.AtomicUpdate(ctx, "counters/c", func(cur int64) int64 {
		assert.Zero(t, cur)
		return cur + 5
	})
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

func TestMemoryStoreSubscribe(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	defer st.Close()

	var mu sync.Mutex
	var events []Event
	unsubscribe := st.Subscribe("posts", func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	require.NoError(t, st.Write(ctx, "posts/p1", []byte(`{}`)))
	require.NoError(t, st.Write(ctx, "products/x", []byte(`{}`))) // other prefix
	require.NoError(t, st.Delete(ctx, "posts/p1"))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, Event{Path: "posts/p1", Kind: EventPut}, events[0])
	assert.Equal(t, Event{Path: "posts/p1", Kind: EventDelete}, events[1])
	mu.Unlock()

	unsubscribe()
	unsubscribe() // idempotent

	require.NoError(t, st.Write(ctx, "posts/p2", []byte(`{}`)))
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	assert.Len(t, events, 2, "no delivery after unsubscribe")
	mu.Unlock()
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "posts/p1/likes", Join("posts", "p1", "likes"))
	assert.Equal(t, "posts/p1", Parent("posts/p1/likes"))
	assert.Equal(t, "", Parent("posts"))
	assert.Equal(t, "likes", Key("posts/p1/likes"))

	assert.True(t, Under("posts/p1", "posts"))
	assert.True(t, Under("posts", "posts"))
	assert.False(t, Under("postscript/p1", "posts"))

	assert.True(t, ValidPath("a/b/c"))
	assert.False(t, ValidPath(""))
	assert.False(t, ValidPath("a//b"))
}
