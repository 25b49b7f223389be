package cli

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/spacekeeper/internal/cachex"
	"github.com/dmitrijs2005/spacekeeper/internal/client/config"
	"github.com/dmitrijs2005/spacekeeper/internal/client/library"
	"github.com/dmitrijs2005/spacekeeper/internal/client/models"
	"github.com/dmitrijs2005/spacekeeper/internal/client/passwords"
	"github.com/dmitrijs2005/spacekeeper/internal/client/snapshots"
	"github.com/dmitrijs2005/spacekeeper/internal/client/storage"
	"github.com/dmitrijs2005/spacekeeper/internal/client/syncer"
	"github.com/dmitrijs2005/spacekeeper/internal/cryptox"
	"github.com/dmitrijs2005/spacekeeper/internal/logging"
)

// App wires the blob store, library service, snapshot manager and sync
// engine behind a terminal REPL. At most one space is open at a time; its
// engine lives on the App until the space is closed or another is opened.
type App struct {
	config *config.Config

	store     storage.BlobStore
	snapshots *snapshots.Manager
	passwords *passwords.Cache
	guard     *cryptox.Guard
	library   *library.Service
	logger    logging.Logger

	engine *syncer.Engine
	reader *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	var store storage.BlobStore
	if c.S3Bucket != "" {
		s3store, err := storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:  c.S3Endpoint,
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		})
		if err != nil {
			log.Printf("error initializing storage: %s", err.Error())
			return nil, err
		}
		store = s3store
	} else {
		// No bucket configured: everything lives in memory for this session.
		log.Println("no S3 bucket configured, running against in-memory storage")
		store = storage.NewMemStore()
	}

	snaps := snapshots.NewManager(store, c.SnapshotRetention, logger)
	lib := library.NewService(store, cachex.New[models.Library](), snaps, logger, c.UserID, c.LibraryCacheTTL)

	return &App{
		config:    c,
		store:     store,
		snapshots: snaps,
		passwords: passwords.NewCache(),
		guard:     cryptox.NewGuard(),
		library:   lib,
		logger:    logger,
		reader:    bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.closeSpace()
	a.Root(ctx)
}

func (a *App) hasOpenSpace() bool {
	return a.engine != nil
}

// closeSpace tears down the current engine, flushing background snapshot
// writes first.
func (a *App) closeSpace() {
	if a.engine == nil {
		return
	}
	if a.engine.HasUnsavedChanges() {
		log.Println("warning: closing space with unsaved changes")
	}
	a.engine.Close()
	a.engine = nil
}
