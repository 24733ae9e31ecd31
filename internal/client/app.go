// Package client wires the persistence layer together for the desktop
// application: store, cache, outbox, uploader and sync loop.
package client

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/receiptdesk/internal/client/config"
	"github.com/dmitrijs2005/receiptdesk/internal/filex"
	"github.com/dmitrijs2005/receiptdesk/internal/imaging"
	"github.com/dmitrijs2005/receiptdesk/internal/logging"
	"github.com/dmitrijs2005/receiptdesk/internal/models"
	"github.com/dmitrijs2005/receiptdesk/internal/repositories/cache"
	"github.com/dmitrijs2005/receiptdesk/internal/repositories/outbox"
	"github.com/dmitrijs2005/receiptdesk/internal/store"
	"github.com/dmitrijs2005/receiptdesk/internal/syncloop"
	"github.com/dmitrijs2005/receiptdesk/internal/upload"
)

const (
	appName    = "receiptdesk"
	dbFileName = "receiptdesk.db"

	// progressBuffer is how many progress events may queue up before the
	// broadcaster starts dropping them.
	progressBuffer = 64
)

type App struct {
	config      *config.Config
	store       *store.Store
	cache       cache.Repository
	queue       outbox.Repository
	uploader    *upload.Client
	broadcaster *upload.Broadcaster
	loop        *syncloop.Loop
	log         logging.Logger
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	dataDir := cfg.DataDir
	var err error
	if dataDir == "" {
		dataDir, err = filex.EnsureAppDir(appName)
	} else {
		dataDir, err = filex.EnsureDir(dataDir)
	}
	if err != nil {
		return nil, err
	}

	s, err := store.Open(ctx, filepath.Join(dataDir, dbFileName), log.With("component", "store"))
	if err != nil {
		return nil, err
	}

	cacheRepo := cache.NewSQLiteRepository(s, log.With("component", "cache"))
	queueRepo := outbox.NewSQLiteRepository(s)

	broadcaster := upload.NewBroadcaster(progressBuffer)
	uploader := upload.NewClient(cfg.EndpointURL, upload.NewRegistry(), broadcaster, log.With("component", "upload"))

	loop := syncloop.New(queueRepo, uploader, cfg.SyncInterval, log.With("component", "syncloop"))

	return &App{
		config:      cfg,
		store:       s,
		cache:       cacheRepo,
		queue:       queueRepo,
		uploader:    uploader,
		broadcaster: broadcaster,
		loop:        loop,
		log:         log,
	}, nil
}

// Run drives the sync loop until ctx is cancelled, then closes the store.
func (a *App) Run(ctx context.Context) {
	a.log.Info(ctx, "client started", "syncInterval", a.config.SyncInterval)
	a.loop.Run(ctx)
	if err := a.store.Close(); err != nil {
		a.log.Error(ctx, "failed to close store", "error", err)
	}
}

// Cache exposes the key/value cache operations.
func (a *App) Cache() cache.Repository { return a.cache }

// Queue exposes the durable outbox operations.
func (a *App) Queue() outbox.Repository { return a.queue }

// Uploader exposes upload start/cancel.
func (a *App) Uploader() *upload.Client { return a.uploader }

// Progress is the stream of upload-progress events for the UI layer.
func (a *App) Progress() <-chan models.UploadProgress { return a.broadcaster.Events() }

// CompressAttachment re-encodes an attachment image within the configured
// maximum dimension, keeping the smallest candidate.
func (a *App) CompressAttachment(dataURL string) (*imaging.Result, error) {
	return imaging.Compress(dataURL, a.config.MaxImageDim)
}
