package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("DOC_NAMESPACE", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("LANDING_URL", "")
	t.Setenv("NAV_CACHE_TTL", "")
	t.Setenv("STORE_TIMEOUT", "")
	t.Setenv("AUTOCREATE_ON_EDIT", "")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, "Documentation", cfg.DocNamespace)
	assert.Equal(t, "Documentation", cfg.LandingURL)
	assert.Equal(t, time.Hour, cfg.NavCacheTTL)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.True(t, cfg.IsDevelopment())

	dc := cfg.Domain()
	assert.Equal(t, "Documentation", dc.Namespace)
	assert.Equal(t, "Special:SpecialLatestDoc", dc.LatestDocURL)
	assert.False(t, dc.AutoCreateOnEdit)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("DOC_NAMESPACE", "Docs")
	t.Setenv("NAV_CACHE_TTL", "90")
	t.Setenv("TOC_CACHE_TTL", "15m")
	t.Setenv("AUTOCREATE_ON_EDIT", "true")
	t.Setenv("STORAGE_BACKEND", "badger")
	t.Setenv("BADGER_PATH", t.TempDir())
	t.Setenv("LANDING_URL", "")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "Docs", cfg.DocNamespace)
	assert.Equal(t, "Docs", cfg.LandingURL)
	assert.Equal(t, 90*time.Second, cfg.NavCacheTTL)
	assert.Equal(t, 15*time.Minute, cfg.TOCCacheTTL)
	assert.True(t, cfg.Domain().AutoCreateOnEdit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "memory ok", mutate: func(c *Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.StorageBackend = "redis" }, wantErr: true},
		{name: "badger without path", mutate: func(c *Config) { c.StorageBackend = StorageBadger }, wantErr: true},
		{name: "dynamodb without table", mutate: func(c *Config) {
			c.StorageBackend = StorageDynamoDB
			c.DynamoDBTable = ""
		}, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.NavCacheTTL = 0 }, wantErr: true},
		{name: "memory in production", mutate: func(c *Config) { c.Environment = "production" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Environment:    "development",
				StorageBackend: StorageMemory,
				DynamoDBTable:  "ponydocs",
				DocNamespace:   "Documentation",
				NavCacheTTL:    time.Hour,
				TOCCacheTTL:    time.Hour,
				LockTTL:        time.Second,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ponydocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("namespace: Manuals\nnavCacheTtl: 5m\nautoCreateOnEdit: true\n"), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DOC_NAMESPACE", "")
	t.Setenv("LANDING_URL", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("NAV_CACHE_TTL", "")
	t.Setenv("TOC_CACHE_TTL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "Manuals", cfg.DocNamespace)
	assert.Equal(t, "Manuals", cfg.LandingURL)
	assert.Equal(t, 5*time.Minute, cfg.NavCacheTTL)
	assert.Equal(t, time.Hour, cfg.TOCCacheTTL)
	assert.True(t, cfg.AutoCreateOnEdit)
}

func TestLoadOverlay_RejectsNegativeTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("navCacheTtl: -5m\n"), 0o600))

	_, err := LoadOverlay(path)
	assert.Error(t, err)
}

func TestConfigWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ponydocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("navCacheTtl: 1m\n"), 0o600))

	w, err := NewConfigWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	got := make(chan time.Duration, 4)
	w.OnChange(func(o *Overlay) { got <- o.NavCacheTTL })
	w.Start()

	require.NoError(t, os.WriteFile(path, []byte("navCacheTtl: 2m\n"), 0o600))

	select {
	case ttl := <-got:
		assert.Equal(t, 2*time.Minute, ttl)
	case <-time.After(5 * time.Second):
		t.Fatal("overlay was not reloaded")
	}
	assert.Equal(t, 2*time.Minute, w.Current().NavCacheTTL)
}
