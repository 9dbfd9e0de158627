package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ripple/internal/observability"

	"gorm.io/gorm"
)

// Leaf is the single-table persistence shape used by GormStore: one row
// per path, with a version column for optimistic concurrency.
type Leaf struct {
	Path    string `gorm:"primaryKey;size:512"`
	Parent  string `gorm:"index;size:512"`
	Value   []byte
	Version int64
}

// TableName specifies the table name for GORM
func (Leaf) TableName() string { return "leaves" }

// GormStore backs the Store interface with a relational database through
// GORM (sqlite for single-node, postgres for shared). Push events are
// fanned out in-process; a multi-process deployment should use the Redis
// backend instead.
type GormStore struct {
	db     *gorm.DB
	events *fanout
}

// NewGormStore migrates the leaves table and returns a ready store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Leaf{}); err != nil {
		return nil, fmt.Errorf("migrate leaves: %w", err)
	}
	return &GormStore{db: db, events: newFanout()}, nil
}

func (s *GormStore) Read(ctx context.Context, path string) ([]byte, error) {
	var leaf Leaf
	err := s.db.WithContext(ctx).Where("path = ?", path).First(&leaf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gorm read %s: %w", path, err)
	}
	return leaf.Value, nil
}

func (s *GormStore) Write(ctx context.Context, path string, value []byte) error {
	leaf := Leaf{Path: path, Parent: Parent(path), Value: value}
	err := s.db.WithContext(ctx).
		Where("path = ?", path).
		Assign(map[string]interface{}{"value": value, "parent": leaf.Parent}).
		FirstOrCreate(&Leaf{Path: path, Parent: leaf.Parent, Value: value}).Error
	if err != nil {
		return fmt.Errorf("gorm write %s: %w", path, err)
	}
	s.events.publish(Event{Path: path, Kind: EventPut})
	return nil
}

func (s *GormStore) Delete(ctx context.Context, path string) error {
	res := s.db.WithContext(ctx).Where("path = ?", path).Delete(&Leaf{})
	if res.Error != nil {
		return fmt.Errorf("gorm delete %s: %w", path, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}
	s.events.publish(Event{Path: path, Kind: EventDelete})
	return nil
}

func (s *GormStore) List(ctx context.Context, path string) (map[string][]byte, error) {
	var leaves []Leaf
	if err := s.db.WithContext(ctx).Where("parent = ?", path).Find(&leaves).Error; err != nil {
		return nil, fmt.Errorf("gorm list %s: %w", path, err)
	}
	out := make(map[string][]byte, len(leaves))
	for _, leaf := range leaves {
		out[Key(leaf.Path)] = leaf.Value
	}
	return out, nil
}

func (s *GormStore) AtomicUpdate(ctx context.Context, path string, fn UpdateFn) (int64, error) {
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		committed, err := s.tryUpdate(ctx, path, fn)
		if err == nil {
			s.events.publish(Event{Path: path, Kind: EventPut})
			return committed, nil
		}
		if !errors.Is(err, ErrConflict) {
			return 0, err
		}

		observability.StoreTxRetries.WithLabelValues("gorm").Inc()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(txBackoff(attempt)):
		}
	}
	return 0, fmt.Errorf("atomic update %s: %w", path, ErrRetryExhausted)
}

// tryUpdate performs one optimistic attempt: read version, compute, then
// update guarded by that version. Zero rows affected means a concurrent
// commit won and the attempt reports ErrConflict.
func (s *GormStore) tryUpdate(ctx context.Context, path string, fn UpdateFn) (int64, error) {
	var leaf Leaf
	err := s.db.WithContext(ctx).Where("path = ?", path).First(&leaf).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		next := fn(0)
		create := Leaf{
			Path:    path,
			Parent:  Parent(path),
			Value:   []byte(strconv.FormatInt(next, 10)),
			Version: 1,
		}
		if err := s.db.WithContext(ctx).Create(&create).Error; err != nil {
			// Unique violation on path: another caller created it first.
			return 0, ErrConflict
		}
		return next, nil

	case err != nil:
		return 0, fmt.Errorf("gorm atomic read %s: %w", path, err)
	}

	cur, err := strconv.ParseInt(string(leaf.Value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric leaf %s: %w", path, err)
	}
	next := fn(cur)

	res := s.db.WithContext(ctx).Model(&Leaf{}).
		Where("path = ? AND version = ?", path, leaf.Version).
		Updates(map[string]interface{}{
			"value":   []byte(strconv.FormatInt(next, 10)),
			"version": leaf.Version + 1,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("gorm atomic write %s: %w", path, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrConflict
	}
	return next, nil
}

func (s *GormStore) Subscribe(prefix string, fn func(Event)) func() {
	return s.events.subscribe(prefix, fn)
}

func (s *GormStore) Close() error {
	s.events.closeAll()
	return nil
}
