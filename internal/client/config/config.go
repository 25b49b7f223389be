package config

import (
	"time"

	"github.com/dmitrijs2005/spacekeeper/internal/client/library"
	"github.com/dmitrijs2005/spacekeeper/internal/client/snapshots"
	"github.com/dmitrijs2005/spacekeeper/internal/client/syncer"
)

// Config holds runtime settings for the SpaceKeeper CLI.
//
// The S3 fields select and authenticate against the blob-store backend; an
// empty bucket means "run against the in-memory store" (useful for trying
// the CLI without any remote setup). The remaining fields tune the sync
// engine, snapshot manager and library cache.
type Config struct {
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	UserID string

	AutoSave          bool
	SaveDelay         time.Duration
	SnapshotRetention int
	LibraryCacheTTL   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.S3Region = "us-east-1"
	c.UserID = "local"
	c.AutoSave = true
	c.SaveDelay = syncer.DefaultSaveDelay
	c.SnapshotRetention = snapshots.DefaultRetention
	c.LibraryCacheTTL = library.DefaultTTL
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
