package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, BackendFixture, cfg.StoreBackend)
	assert.Equal(t, "ledgerdoc.yaml", cfg.FixturePath)
	assert.Equal(t, 400, cfg.ImageMaxWidth)
	assert.Equal(t, 300, cfg.ImageMaxHeight)
	assert.InDelta(t, 0.7, cfg.ImageQuality, 1e-9)
	assert.Equal(t, 15*time.Second, cfg.ImageFetchTimeout)
	assert.False(t, cfg.HasObjectStore())

	opts := cfg.GetImageOptions()
	assert.Equal(t, 400, opts.MaxWidth)
	assert.Equal(t, "info", cfg.GetLoggerConfig().Level)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Firestore")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "fortune-gifts")
	t.Setenv("IMAGE_QUALITY", "0.5")
	t.Setenv("OBJECT_STORE_ENDPOINT", "storage.googleapis.com")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, BackendFirestore, cfg.StoreBackend)
	assert.Equal(t, "fortune-gifts", cfg.GoogleCloudProject)
	assert.InDelta(t, 0.5, cfg.ImageQuality, 1e-9)
	assert.True(t, cfg.HasObjectStore())
	assert.Equal(t, "storage.googleapis.com", cfg.GetObjectStoreConfig().Endpoint)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "postgres"}},
		{name: "firestore without project", env: map[string]string{"STORE_BACKEND": "firestore"}},
		{name: "quality above one", env: map[string]string{"IMAGE_QUALITY": "1.5"}},
		{name: "zero width", env: map[string]string{"IMAGE_MAX_WIDTH": "0"}},
		{name: "export bucket without endpoint", env: map[string]string{"EXPORT_BUCKET": "exports"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			assert.Error(t, err)
		})
	}
}
