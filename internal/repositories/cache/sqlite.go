// Package cache implements the key/value cache table over the shared store.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/receiptdesk/internal/common"
	"github.com/dmitrijs2005/receiptdesk/internal/dbx"
	"github.com/dmitrijs2005/receiptdesk/internal/logging"
	"github.com/dmitrijs2005/receiptdesk/internal/models"
	"github.com/dmitrijs2005/receiptdesk/internal/store"
)

type SQLiteRepository struct {
	store *store.Store
	log   logging.Logger
}

func NewSQLiteRepository(s *store.Store, log logging.Logger) *SQLiteRepository {
	return &SQLiteRepository{store: s, log: log}
}

// Get returns the entry for key, or (nil, nil) when absent. A stored value
// that is no longer valid JSON degrades to a null value instead of failing
// the call; the corruption is logged so it stays observable.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	entry := &models.CacheEntry{Key: key}
	var raw []byte

	err := r.store.WithConn(ctx, func(db dbx.DBTX) error {
		row := db.QueryRowContext(ctx,
			`SELECT value, updated_at FROM local_cache WHERE key = ?`, key)
		return row.Scan(&raw, &entry.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get cache[%s]: %w", common.ErrQuery, key, err)
	}

	if raw == nil || !json.Valid(raw) {
		if raw != nil {
			r.log.Warn(ctx, "malformed cache value, substituting null", "key", key)
		}
		entry.Value = nil
		return entry, nil
	}

	entry.Value = json.RawMessage(raw)
	return entry, nil
}

// Set upserts the value under key. The timestamp is always taken at call
// time: a rewrite of the same value still refreshes updated_at.
func (r *SQLiteRepository) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: failed to encode cache[%s]: %v", common.ErrSerialization, key, err)
	}

	now := time.Now().UnixMilli()

	err = r.store.WithConn(ctx, func(db dbx.DBTX) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO local_cache (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, string(data), now)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: failed to set cache[%s]: %w", common.ErrQuery, key, err)
	}
	return nil
}

// Delete removes the entry if present.
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	err := r.store.WithConn(ctx, func(db dbx.DBTX) error {
		_, err := db.ExecContext(ctx, `DELETE FROM local_cache WHERE key = ?`, key)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete cache[%s]: %w", common.ErrQuery, key, err)
	}
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix, used for
// namespaced bulk invalidation (e.g. clearing all keys under one scope).
func (r *SQLiteRepository) DeletePrefix(ctx context.Context, prefix string) error {
	err := r.store.WithConn(ctx, func(db dbx.DBTX) error {
		_, err := db.ExecContext(ctx,
			`DELETE FROM local_cache WHERE key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete cache prefix[%s]: %w", common.ErrQuery, prefix, err)
	}
	return nil
}

// escapeLike quotes LIKE metacharacters so the prefix matches literally.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
