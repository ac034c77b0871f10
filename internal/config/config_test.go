package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 50.0, cfg.OCR.MinConfidence)
	assert.Equal(t, "uploads", cfg.Storage.UploadsDir)
	assert.Equal(t, ArtifactDriverLocal, cfg.Artifact.Driver)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
  read_timeout: 5s
storage:
  uploads_dir: /srv/uploads
artifact:
  driver: redis
  redis:
    addr: cache:6379
    ttl: 1h
ocr:
  min_confidence: 65
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/srv/uploads", cfg.Storage.UploadsDir)
	assert.Equal(t, ArtifactDriverRedis, cfg.Artifact.Driver)
	assert.Equal(t, "cache:6379", cfg.Artifact.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Artifact.Redis.TTL)
	assert.Equal(t, 65.0, cfg.OCR.MinConfidence)
	// untouched defaults survive
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 200.0, cfg.Raster.DPI)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("UPLOADS_DIR", "/data/in")
	t.Setenv("REDIS_URL", "redis://redis:6379")
	t.Setenv("OCR_MIN_CONFIDENCE", "70")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/data/in", cfg.Storage.UploadsDir)
	assert.Equal(t, ArtifactDriverRedis, cfg.Artifact.Driver)
	assert.Equal(t, "redis:6379", cfg.Artifact.Redis.Addr)
	assert.Equal(t, 70.0, cfg.OCR.MinConfidence)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}, wantErr: false},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Artifact.Driver = "s3" }, wantErr: true},
		{name: "gcs without bucket", mutate: func(c *Config) { c.Artifact.Driver = ArtifactDriverGCS }, wantErr: true},
		{name: "gcs with bucket", mutate: func(c *Config) {
			c.Artifact.Driver = ArtifactDriverGCS
			c.Artifact.GCS.Bucket = "b"
		}, wantErr: false},
		{name: "confidence above 100", mutate: func(c *Config) { c.OCR.MinConfidence = 101 }, wantErr: true},
		{name: "dpi too low", mutate: func(c *Config) { c.Raster.DPI = 10 }, wantErr: true},
		{name: "empty uploads dir", mutate: func(c *Config) { c.Storage.UploadsDir = " " }, wantErr: true},
		{name: "no upload limit", mutate: func(c *Config) { c.Server.MaxUploadBytes = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
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
