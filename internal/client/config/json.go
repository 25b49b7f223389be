package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/spacekeeper/internal/flagx"
	"github.com/dmitrijs2005/spacekeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be given either as strings like "100ms"
// or as integer nanoseconds; parsed values are copied into the runtime
// Config.
type JsonConfig struct {
	S3Endpoint        string         `json:"s3_endpoint"`
	S3Region          string         `json:"s3_region"`
	S3Bucket          string         `json:"s3_bucket"`
	S3AccessKey       string         `json:"s3_access_key"`
	S3SecretKey       string         `json:"s3_secret_key"`
	UserID            string         `json:"user_id"`
	AutoSave          *bool          `json:"auto_save"`
	SaveDelay         timex.Duration `json:"save_delay"`
	SnapshotRetention int            `json:"snapshot_retention"`
	LibraryCacheTTL   timex.Duration `json:"library_cache_ttl"`
}

// parseJson overlays cfg with values from the JSON file given via -c or
// -config. When neither flag is present nothing is loaded. Read or
// unmarshal errors panic; configuration problems should stop startup.
func parseJson(cfg *Config) {
	name := flagx.JsonConfigFlags()
	if name == "" {
		return
	}

	data, err := os.ReadFile(name)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}
	applyJson(cfg, &jc)
}

func applyJson(cfg *Config, jc *JsonConfig) {
	if jc.S3Endpoint != "" {
		cfg.S3Endpoint = jc.S3Endpoint
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3AccessKey != "" {
		cfg.S3AccessKey = jc.S3AccessKey
	}
	if jc.S3SecretKey != "" {
		cfg.S3SecretKey = jc.S3SecretKey
	}
	if jc.UserID != "" {
		cfg.UserID = jc.UserID
	}
	if jc.AutoSave != nil {
		cfg.AutoSave = *jc.AutoSave
	}
	if jc.SaveDelay.Duration > 0 {
		cfg.SaveDelay = jc.SaveDelay.Duration
	}
	if jc.SnapshotRetention > 0 {
		cfg.SnapshotRetention = jc.SnapshotRetention
	}
	if jc.LibraryCacheTTL.Duration > 0 {
		cfg.LibraryCacheTTL = jc.LibraryCacheTTL.Duration
	}
}
