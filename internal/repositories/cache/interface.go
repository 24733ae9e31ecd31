package cache

import (
	"context"

	"github.com/dmitrijs2005/receiptdesk/internal/models"
)

// Repository is the key-addressed, timestamped cache over the local store.
// Values are opaque JSON documents; the store never interprets them beyond
// the key's prefix.
type Repository interface {
	// Get returns the entry for key, or (nil, nil) when absent.
	Get(ctx context.Context, key string) (*models.CacheEntry, error)

	// Set upserts the value under key, stamping it with the current time.
	Set(ctx context.Context, key string, value any) error

	// Delete removes the entry if present; absent keys are a no-op.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every entry whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
