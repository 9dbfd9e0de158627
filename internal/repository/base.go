package repository

import (
	"context"
	"encoding/json"
	"errors"

	"ripple/internal/models"
	"ripple/internal/store"
)

// mapStoreErr translates low-level store failures into application errors.
func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrRetryExhausted) {
		return models.NewTransientStoreError(err)
	}
	return models.NewInternalError(err)
}

// getJSON reads and decodes the blob at path into out.
func getJSON(ctx context.Context, st store.Store, path string, out interface{}) error {
	raw, err := st.Read(ctx, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// putJSON encodes v and writes it at path.
func putJSON(ctx context.Context, st store.Store, path string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return st.Write(ctx, path, raw)
}

// readCounter reads a numeric leaf, treating an absent leaf as zero.
// Counters are materialized lazily by the first atomic update.
func readCounter(ctx context.Context, st store.Store, path string) (int64, error) {
	raw, err := st.Read(ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// unmarshalLenient decodes a collection member. Callers skip members that
// fail to decode instead of failing the whole listing; a counter leaf
// indexed alongside blobs would otherwise poison every snapshot.
func unmarshalLenient(raw []byte, out interface{}) error {
	return json.Unmarshal(raw, out)
}

// edgeExists is a point lookup on an existence-only edge.
func edgeExists(ctx context.Context, st store.Store, path string) (bool, error) {
	_, err := st.Read(ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
