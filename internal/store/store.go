// Package store owns the single on-disk SQLite database behind the local
// cache and the sync queue. It applies durability settings on open, ensures
// the schema exists and serializes all access through one exclusion guard.
//
// The single-writer model trades row-level concurrency for simplicity, which
// is appropriate for a single-process desktop client. A panic raised while an
// operation holds the guard poisons the store permanently: every later call
// fails until the process restarts the store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/receiptdesk/internal/common"
	"github.com/dmitrijs2005/receiptdesk/internal/dbx"
	"github.com/dmitrijs2005/receiptdesk/internal/filex"
	"github.com/dmitrijs2005/receiptdesk/internal/logging"
	"github.com/dmitrijs2005/receiptdesk/internal/store/migrations"
)

// pragmas applied once per connection open. WAL keeps readers off the writer
// path, synchronous=NORMAL is safe under WAL, temp data stays off disk.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA busy_timeout=5000",
}

type Store struct {
	db       *sql.DB
	mu       sync.Mutex
	poisoned atomic.Bool
	log      logging.Logger
}

// Open creates or opens the database file at path, creating parent
// directories as needed, applies durability pragmas and runs schema
// migrations. Failures are wrapped as common.ErrStoreInit and are fatal:
// there is no internal retry.
func Open(ctx context.Context, path string, log logging.Logger) (*Store, error) {
	if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreInit, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrStoreInit, path, err)
	}

	// All access serializes on the guard anyway; one connection keeps
	// in-memory databases coherent and avoids driver-level lock contention.
	db.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %s: %v", common.ErrStoreInit, pragma, err)
		}
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrations: %v", common.ErrStoreInit, err)
	}

	log.Info(ctx, "store opened", "path", path)

	return &Store{db: db, log: log}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

// WithConn runs fn under the store's exclusion guard. If a previous
// operation panicked while holding the guard, the store is poisoned and
// every call fails with common.ErrStorePoisoned. A panic inside fn is
// recovered, poisons the store and is returned as a common.ErrQuery; it
// never escapes the guard.
func (s *Store) WithConn(ctx context.Context, fn func(db dbx.DBTX) error) (err error) {
	if s.poisoned.Load() {
		return common.ErrStorePoisoned
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			s.poisoned.Store(true)
			s.log.Error(ctx, "store operation panicked, store is now poisoned", "panic", p)
			err = fmt.Errorf("%w: panic in store operation: %v", common.ErrQuery, p)
		}
	}()

	return fn(s.db)
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
