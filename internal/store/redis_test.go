package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	st := NewRedisStore(client)
	t.Cleanup(func() {
		_ = st.Close()
		_ = client.Close()
	})
	return st
}

func TestRedisStoreReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	st := newTestRedisStore(t)

	_, err := st.Read(ctx, "posts/p1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Write(ctx, "posts/p1", []byte(`{"id":"p1"}`)))

	got, err := st.Read(ctx, "posts/p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1"}`, string(got))

	require.NoError(t, st.Delete(ctx, "posts/p1"))
	_, err = st.Read(ctx, "posts/p1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, st.Delete(ctx, "posts/p1"))
}

func TestRedisStoreList(t *testing.T) {
	ctx := context.Background()
	st := newTestRedisStore(t)

	require.NoError(t, st.Write(ctx, "posts/p1", []byte(`{}`)))
	require.NoError(t, st.Write(ctx, "posts/p2", []byte(`{}`)))
	require.NoError(t, st.Write(ctx, "posts/p1/likes", []byte(`7`)))

	children, err := st.List(ctx, "posts")
	require.NoError(t, err)
	assert.Len(t, children, 2)
	assert.Contains(t, children, "p1")
	assert.Contains(t, children, "p2")

	counters, err := st.List(ctx, "posts/p1")
	require.NoError(t, err)
	assert.Equal(t, []byte("7"), counters["likes"])

	empty, err := st.List(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRedisStoreAtomicUpdate(t *testing.T) {
	ctx := context.Background()
	st := newTestRedisStore(t)

	n, err := st.AtomicUpdate(ctx, "posts/p1/likes", func(cur int64) int64 { return cur + 1 })
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = st.AtomicUpdate(ctx, "posts/p1/likes", func(cur int64) int64 { return cur + 2 })
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	// The counter leaf is indexed under its parent like any other child.
	children, err := st.List(ctx, "posts/p1")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), children["likes"])
}

func TestRedisStoreSubscribeDeliversCommits(t *testing.T) {
	ctx := context.Background()
	st := newTestRedisStore(t)

	var mu sync.Mutex
	var events []Event
	unsubscribe := st.Subscribe("posts", func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	defer unsubscribe()

	// Give the dispatcher a moment to establish the pub/sub channel.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, st.Write(ctx, "posts/p1", []byte(`{}`)))
	require.NoError(t, st.Write(ctx, "vibes/v1", []byte(`{}`)))
	require.NoError(t, st.Delete(ctx, "posts/p1"))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, Event{Path: "posts/p1", Kind: EventPut}, events[0])
	assert.Equal(t, Event{Path: "posts/p1", Kind: EventDelete}, events[1])
	mu.Unlock()
}
