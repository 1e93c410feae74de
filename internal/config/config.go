package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ledgerdoc/internal/imaging"
	"ledgerdoc/internal/logger"
)

const (
	BackendFixture   = "fixture"
	BackendFirestore = "firestore"
)

type Config struct {
	// Record store
	StoreBackend       string
	FixturePath        string
	GoogleCloudProject string
	FirestoreDatabase  string

	// Object storage (image references and uploaded exports)
	ObjectStoreEndpoint  string
	ObjectStoreAccessKey string
	ObjectStoreSecretKey string
	ObjectStoreUseSSL    bool
	ObjectStoreBucket    string
	ExportBucket         string

	// Export output
	ExportDir string

	// Image transcoding
	ImageMaxWidth     int
	ImageMaxHeight    int
	ImageQuality      float64
	ImageConcurrency  int
	ImageFetchTimeout time.Duration

	// Google Sheets rollup publishing (optional)
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("STORE_BACKEND", BackendFixture)
	v.SetDefault("FIXTURE_PATH", "ledgerdoc.yaml")
	v.SetDefault("GOOGLE_CLOUD_PROJECT", "")
	v.SetDefault("FIRESTORE_DATABASE", "(default)")
	v.SetDefault("OBJECT_STORE_ENDPOINT", "")
	v.SetDefault("OBJECT_STORE_ACCESS_KEY", "")
	v.SetDefault("OBJECT_STORE_SECRET_KEY", "")
	v.SetDefault("OBJECT_STORE_USE_SSL", true)
	v.SetDefault("OBJECT_STORE_BUCKET", "")
	v.SetDefault("EXPORT_BUCKET", "")
	v.SetDefault("EXPORT_DIR", ".")
	v.SetDefault("IMAGE_MAX_WIDTH", imaging.DefaultMaxWidth)
	v.SetDefault("IMAGE_MAX_HEIGHT", imaging.DefaultMaxHeight)
	v.SetDefault("IMAGE_QUALITY", imaging.DefaultQuality)
	v.SetDefault("IMAGE_CONCURRENCY", imaging.DefaultConcurrency)
	v.SetDefault("IMAGE_FETCH_TIMEOUT", "15s")
	v.SetDefault("GOOGLE_SHEET_URL", "")
	v.SetDefault("GOOGLE_SHEET_WORKSHEET", "Rollups")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00")
	v.SetDefault("LOG_OUTPUT", "stderr")
}

// Load reads configuration from the environment (a .env file is loaded by main beforehand).
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	config := &Config{
		StoreBackend:         strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		FixturePath:          v.GetString("FIXTURE_PATH"),
		GoogleCloudProject:   v.GetString("GOOGLE_CLOUD_PROJECT"),
		FirestoreDatabase:    v.GetString("FIRESTORE_DATABASE"),
		ObjectStoreEndpoint:  v.GetString("OBJECT_STORE_ENDPOINT"),
		ObjectStoreAccessKey: v.GetString("OBJECT_STORE_ACCESS_KEY"),
		ObjectStoreSecretKey: v.GetString("OBJECT_STORE_SECRET_KEY"),
		ObjectStoreUseSSL:    v.GetBool("OBJECT_STORE_USE_SSL"),
		ObjectStoreBucket:    v.GetString("OBJECT_STORE_BUCKET"),
		ExportBucket:         v.GetString("EXPORT_BUCKET"),
		ExportDir:            v.GetString("EXPORT_DIR"),
		ImageMaxWidth:        v.GetInt("IMAGE_MAX_WIDTH"),
		ImageMaxHeight:       v.GetInt("IMAGE_MAX_HEIGHT"),
		ImageQuality:         v.GetFloat64("IMAGE_QUALITY"),
		ImageConcurrency:     v.GetInt("IMAGE_CONCURRENCY"),
		ImageFetchTimeout:    v.GetDuration("IMAGE_FETCH_TIMEOUT"),
		GoogleSheetURL:       v.GetString("GOOGLE_SHEET_URL"),
		GoogleSheetWorksheet: v.GetString("GOOGLE_SHEET_WORKSHEET"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
		LogTimeFormat:        v.GetString("LOG_TIME_FORMAT"),
		LogOutput:            v.GetString("LOG_OUTPUT"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendFixture:
		if c.FixturePath == "" {
			return fmt.Errorf("FIXTURE_PATH is required for the fixture store")
		}
	case BackendFirestore:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for the firestore store")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendFixture, BackendFirestore, c.StoreBackend)
	}
	if c.ImageMaxWidth <= 0 || c.ImageMaxHeight <= 0 {
		return fmt.Errorf("IMAGE_MAX_WIDTH and IMAGE_MAX_HEIGHT must be positive")
	}
	if c.ImageQuality <= 0 || c.ImageQuality > 1 {
		return fmt.Errorf("IMAGE_QUALITY must be in (0, 1], got %v", c.ImageQuality)
	}
	if c.ImageConcurrency <= 0 {
		return fmt.Errorf("IMAGE_CONCURRENCY must be positive")
	}
	if c.ExportBucket != "" && c.ObjectStoreEndpoint == "" {
		return fmt.Errorf("OBJECT_STORE_ENDPOINT is required when EXPORT_BUCKET is set")
	}
	return nil
}

// HasObjectStore reports whether object-storage credentials are configured.
func (c *Config) HasObjectStore() bool {
	return c.ObjectStoreEndpoint != ""
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetImageOptions returns the transcoding bounds for exported item images
func (c *Config) GetImageOptions() imaging.Options {
	return imaging.Options{
		MaxWidth:  c.ImageMaxWidth,
		MaxHeight: c.ImageMaxHeight,
		Quality:   c.ImageQuality,
	}
}

// GetObjectStoreConfig returns the object storage connection settings
func (c *Config) GetObjectStoreConfig() imaging.ObjectStoreConfig {
	return imaging.ObjectStoreConfig{
		Endpoint:      c.ObjectStoreEndpoint,
		AccessKey:     c.ObjectStoreAccessKey,
		SecretKey:     c.ObjectStoreSecretKey,
		UseSSL:        c.ObjectStoreUseSSL,
		DefaultBucket: c.ObjectStoreBucket,
	}
}
