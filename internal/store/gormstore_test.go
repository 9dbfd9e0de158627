package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	st, err := NewGormStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestGormStoreReadWriteDelete(t *testing.T) {
	ctx := context.Background()
	st := newTestGormStore(t)

	_, err := st.Read(ctx, "posts/p1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Write(ctx, "posts/p1", []byte(`{"id":"p1"}`)))
	require.NoError(t, st.Write(ctx, "posts/p1", []byte(`{"id":"p1","v":2}`))) // upsert

	got, err := st.Read(ctx, "posts/p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1","v":2}`, string(got))

	require.NoError(t, st.Delete(ctx, "posts/p1"))
	_, err = st.Read(ctx, "posts/p1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, st.Delete(ctx, "posts/p1"))
}

func TestGormStoreListByParent(t *testing.T) {
	ctx := context.Background()
	st := newTestGormStore(t)

	require.NoError(t, st.Write(ctx, "posts/p1", []byte(`{}`)))
	require.NoError(t, st.Write(ctx, "posts/p2", []byte(`{}`)))
	require.NoError(t, st.Write(ctx, "posts/p1/likes", []byte(`4`)))

	children, err := st.List(ctx, "posts")
	require.NoError(t, err)
	assert.Len(t, children, 2)

	counters, err := st.List(ctx, "posts/p1")
	require.NoError(t, err)
	assert.Equal(t, []byte("4"), counters["likes"])
}

func TestGormStoreAtomicUpdate(t *testing.T) {
	ctx := context.Background()
	st := newTestGormStore(t)

	n, err := st.AtomicUpdate(ctx, "posts/p1/likes", func(cur int64) int64 { return cur + 1 })
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = st.AtomicUpdate(ctx, "posts/p1/likes", func(cur int64) int64 { return cur + 4 })
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	got, err := st.Read(ctx, "posts/p1/likes")
	require.NoError(t, err)
	assert.Equal(t, "5", string(got))
}

func TestGormStoreReadSurfacesDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "leaves"`).WillReturnError(assert.AnError)

	st := &GormStore{db: gormDB, events: newFanout()}
	_, err = st.Read(context.Background(), "posts/p1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
