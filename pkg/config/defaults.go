package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyMetadataDefaults(&cfg.Metadata)
	applyContentDefaults(&cfg.Content)
	applySessionDefaults(&cfg.Sessions)
	applyQueueDefaults(&cfg.Queue)
	applyThumbnailDefaults(&cfg.Thumbnails)
	applyGCDefaults(&cfg.GC)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = 5000
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 64 << 20
	}
}

func applyMetadataDefaults(cfg *MetadataConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.Mongo == nil {
		cfg.Mongo = make(map[string]any)
	}
	if cfg.Type == "badger" && cfg.Badger["db_path"] == nil {
		cfg.Badger["db_path"] = defaultDataPath("metadata")
	}
}

func applyContentDefaults(cfg *ContentConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
	if cfg.Type == "filesystem" && cfg.Filesystem["path"] == nil {
		cfg.Filesystem["path"] = defaultDataPath("content")
	}
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.Type == "badger" && cfg.Badger["db_path"] == nil {
		cfg.Badger["db_path"] = defaultDataPath("sessions")
	}
}

func applyQueueDefaults(cfg *QueueConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
		cfg.Enabled = true
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.Type == "badger" && cfg.Badger["db_path"] == nil {
		cfg.Badger["db_path"] = defaultDataPath("queue")
	}
}

// defaultDataPath returns the default on-disk location for a named store,
// under XDG_DATA_HOME when set and ~/.local/share otherwise.
func defaultDataPath(name string) string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "dittodrive", name)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "dittodrive-data", name)
	}

	return filepath.Join(home, ".local", "share", "dittodrive", name)
}

func applyThumbnailDefaults(cfg *ThumbnailConfig) {
	if cfg.Workers == 0 {
		cfg.Workers = 2
	}
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
}

func applyGCDefaults(cfg *GCConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = 24 * time.Hour
	}
}
