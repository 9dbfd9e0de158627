package repository

import (
	"testing"

	"ripple/internal/broker"
	"ripple/internal/store"
)

func newTestBackend(t *testing.T) (store.Store, *broker.Broker) {
	t.Helper()
	st := store.NewMemoryStore()
	t.Cleanup(func() { _ = st.Close() })
	return st, broker.New(st)
}
