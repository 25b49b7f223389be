package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/spacekeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-e string   S3-compatible endpoint URL (empty for real AWS)
//	-r string   S3 region
//	-b string   S3 bucket (empty runs against the in-memory store)
//	-ak string  S3 access key id
//	-sk string  S3 secret access key
//	-u string   user id owning the library
//	-m          manual save mode (disables auto-save)
//	-d int      auto-save debounce in milliseconds
//	-n int      snapshots kept per space
//
// os.Args is filtered to only the flags handled here, using
// flagx.FilterArgs, so this parser does not trip over flags owned by other
// components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-e", "-r", "-b", "-ak", "-sk", "-u", "-m", "-d", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.S3Endpoint, "e", cfg.S3Endpoint, "S3-compatible endpoint URL")
	fs.StringVar(&cfg.S3Region, "r", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3AccessKey, "ak", cfg.S3AccessKey, "S3 access key id")
	fs.StringVar(&cfg.S3SecretKey, "sk", cfg.S3SecretKey, "S3 secret access key")
	fs.StringVar(&cfg.UserID, "u", cfg.UserID, "user id owning the library")
	manual := fs.Bool("m", !cfg.AutoSave, "manual save mode (disable auto-save)")
	saveDelay := fs.Int("d", int(cfg.SaveDelay.Milliseconds()), "auto-save debounce (in milliseconds)")
	fs.IntVar(&cfg.SnapshotRetention, "n", cfg.SnapshotRetention, "snapshots kept per space")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AutoSave = !*manual
	cfg.SaveDelay = time.Duration(*saveDelay) * time.Millisecond
}
