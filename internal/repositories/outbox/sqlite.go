// Package outbox implements the durable sync queue over the shared store.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/receiptdesk/internal/common"
	"github.com/dmitrijs2005/receiptdesk/internal/dbx"
	"github.com/dmitrijs2005/receiptdesk/internal/models"
	"github.com/dmitrijs2005/receiptdesk/internal/store"
)

type SQLiteRepository struct {
	store *store.Store
}

func NewSQLiteRepository(s *store.Store) *SQLiteRepository {
	return &SQLiteRepository{store: s}
}

// Add persists a new job synchronously and returns the assigned id only
// after the durable write completes. Ids are AUTOINCREMENT: strictly
// increasing and never reused, even after deletes.
func (r *SQLiteRepository) Add(ctx context.Context, params AddParams) (int64, error) {
	if params.Action == "" {
		return 0, fmt.Errorf("%w: action is required", common.ErrQuery)
	}

	method := params.Method
	if method == "" {
		method = common.DefaultHTTPMethod
	}

	p := params.Params
	if p == nil {
		p = map[string]any{}
	}
	paramsJSON, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to encode job params: %v", common.ErrSerialization, err)
	}

	payloadJSON, err := json.Marshal(params.Payload)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to encode job payload: %v", common.ErrSerialization, err)
	}

	now := time.Now().UnixMilli()

	var id int64
	err = r.store.WithConn(ctx, func(db dbx.DBTX) error {
		res, err := db.ExecContext(ctx, `
			INSERT INTO sync_queue (action, method, params, payload, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, params.Action, method, string(paramsJSON), string(payloadJSON), now)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to add job: %w", common.ErrQuery, err)
	}
	return id, nil
}

// List returns up to limit jobs ordered ascending by id. Listing never
// removes rows; jobs stay queued until Delete confirms delivery.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]models.SyncJob, error) {
	if limit <= 0 {
		limit = common.DefaultListLimit
	}

	var result []models.SyncJob
	err := r.store.WithConn(ctx, func(db dbx.DBTX) error {
		rows, err := db.QueryContext(ctx, `
			SELECT id, action, method, params, payload, created_at
			FROM sync_queue ORDER BY id ASC LIMIT ?
		`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var job models.SyncJob
			var params, payload []byte
			if err := rows.Scan(&job.ID, &job.Action, &job.Method, &params, &payload, &job.CreatedAt); err != nil {
				return err
			}
			job.Params = json.RawMessage(params)
			job.Payload = json.RawMessage(payload)
			result = append(result, job)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list jobs: %w", common.ErrQuery, err)
	}
	return result, nil
}

// Delete removes one job by id, invoked after confirmed remote success.
// Deleting an already-removed id is a no-op.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	err := r.store.WithConn(ctx, func(db dbx.DBTX) error {
		_, err := db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete job %d: %w", common.ErrQuery, id, err)
	}
	return nil
}

// Clear removes all jobs.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	err := r.store.WithConn(ctx, func(db dbx.DBTX) error {
		_, err := db.ExecContext(ctx, `DELETE FROM sync_queue`)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: failed to clear queue: %w", common.ErrQuery, err)
	}
	return nil
}

// Count returns the number of pending jobs.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.store.WithConn(ctx, func(db dbx.DBTX) error {
		return db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count jobs: %w", common.ErrQuery, err)
	}
	return count, nil
}
