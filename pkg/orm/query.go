// Package orm is a thin layer over gorm: context-bound queries, a
// not-found sentinel independent of gorm, transactions and cache-aside reads.
package orm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/carby/pkg/cache"
	"github.com/shashiranjanraj/carby/pkg/logger"
)

// ErrNotFound is returned by First when no row matches.
var ErrNotFound = errors.New("record not found")

type Query struct {
	db *gorm.DB
}

// DB starts a query bound to ctx.
func DB(ctx context.Context, db *gorm.DB) *Query {
	return &Query{db: db.WithContext(ctx)}
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Where(query interface{}, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

func (q *Query) Order(value interface{}) *Query {
	return &Query{db: q.db.Order(value)}
}

func (q *Query) Get(dest interface{}) error {
	return q.db.Find(dest).Error
}

// First loads the first matching row ordered by primary key.
func (q *Query) First(dest interface{}) error {
	err := q.db.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Exists reports whether any row matches.
func (q *Query) Exists() (bool, error) {
	var n int64
	if err := q.db.Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Cache serves dest from store when present, otherwise runs the query and
// stores the JSON-encoded result for ttl. Cache failures fall back to the
// database.
func (q *Query) Cache(store cache.Store, key string, ttl time.Duration, dest interface{}) error {
	ctx := q.db.Statement.Context
	if raw, err := store.Get(ctx, key); err == nil {
		if json.Unmarshal(raw, dest) == nil {
			return nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.WithCtx(ctx).Warn("orm: cache read failed", "key", key, "error", err)
	}

	if err := q.db.Find(dest).Error; err != nil {
		return err
	}

	raw, err := json.Marshal(dest)
	if err == nil {
		err = store.Set(ctx, key, raw, ttl)
	}
	if err != nil {
		logger.WithCtx(ctx).Warn("orm: cache write failed", "key", key, "error", err)
	}
	return nil
}

// Transaction runs fn in a database transaction bound to ctx. Returning an
// error from fn rolls back.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
