// Package config provides configuration loading for the table extractor.
// Supports YAML files, a .env file and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Artifact store drivers.
const (
	ArtifactDriverLocal = "local"
	ArtifactDriverRedis = "redis"
	ArtifactDriverGCS   = "gcs"
)

// Config holds all configuration for the service and CLI.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Artifact      ArtifactConfig      `yaml:"artifact"`
	Raster        RasterConfig        `yaml:"raster"`
	OCR           OCRConfig           `yaml:"ocr"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
	CORSOrigins      []string      `yaml:"cors_origins"`
}

// StorageConfig holds local filesystem locations.
type StorageConfig struct {
	UploadsDir string `yaml:"uploads_dir"`
	ScratchDir string `yaml:"scratch_dir"` // empty means os.TempDir()
}

// ArtifactConfig selects where the latest spreadsheet is kept.
type ArtifactConfig struct {
	Driver string      `yaml:"driver"` // local, redis or gcs
	Local  LocalConfig `yaml:"local"`
	Redis  RedisConfig `yaml:"redis"`
	GCS    GCSConfig   `yaml:"gcs"`
}

// LocalConfig holds filesystem artifact settings.
type LocalConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"pool_size"`
	Key      string        `yaml:"key"`
	TTL      time.Duration `yaml:"ttl"`
}

// GCSConfig holds Cloud Storage settings.
type GCSConfig struct {
	Bucket   string `yaml:"bucket"`
	Object   string `yaml:"object"`
	Endpoint string `yaml:"endpoint"` // optional, for emulators
}

// RasterConfig holds PDF rendering settings.
type RasterConfig struct {
	DPI float64 `yaml:"dpi"`
}

// OCRConfig holds OCR engine settings.
type OCRConfig struct {
	Language       string  `yaml:"language"`
	MinConfidence  float64 `yaml:"min_confidence"`
	TessdataPrefix string  `yaml:"tessdata_prefix"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             5000,
			ReadTimeout:      60 * time.Second,
			WriteTimeout:     5 * time.Minute,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   32 << 20,
			CORSOrigins:      []string{"*"},
		},
		Storage: StorageConfig{
			UploadsDir: "uploads",
		},
		Artifact: ArtifactConfig{
			Driver: ArtifactDriverLocal,
			Local: LocalConfig{
				Path: "result.xlsx",
			},
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
				Key:      "latest-workbook",
			},
			GCS: GCSConfig{
				Object: "result.xlsx",
			},
		},
		Raster: RasterConfig{
			DPI: 200,
		},
		OCR: OCRConfig{
			Language:      "eng",
			MinConfidence: 50,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "table-extractor",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}

	if strings.TrimSpace(c.Storage.UploadsDir) == "" {
		return fmt.Errorf("uploads_dir is required")
	}

	switch c.Artifact.Driver {
	case ArtifactDriverLocal:
		if c.Artifact.Local.Path == "" {
			return fmt.Errorf("artifact.local.path is required")
		}
	case ArtifactDriverRedis:
		if c.Artifact.Redis.Addr == "" {
			return fmt.Errorf("artifact.redis.addr is required")
		}
	case ArtifactDriverGCS:
		if c.Artifact.GCS.Bucket == "" {
			return fmt.Errorf("artifact.gcs.bucket is required")
		}
	default:
		return fmt.Errorf("invalid artifact driver: %s", c.Artifact.Driver)
	}

	if c.Raster.DPI < 36 || c.Raster.DPI > 1200 {
		return fmt.Errorf("raster dpi must be between 36 and 1200, got %v", c.Raster.DPI)
	}

	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 100 {
		return fmt.Errorf("ocr min_confidence must be between 0 and 100")
	}

	if c.OCR.Language == "" {
		return fmt.Errorf("ocr language is required")
	}

	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("UPLOADS_DIR"); v != "" {
		cfg.Storage.UploadsDir = v
	}

	if v := os.Getenv("SCRATCH_DIR"); v != "" {
		cfg.Storage.ScratchDir = v
	}

	if v := os.Getenv("ARTIFACT_DRIVER"); v != "" {
		cfg.Artifact.Driver = v
	}

	if v := os.Getenv("ARTIFACT_PATH"); v != "" {
		cfg.Artifact.Local.Path = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Artifact.Driver = ArtifactDriverRedis
		cfg.Artifact.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("GCS_BUCKET"); v != "" {
		cfg.Artifact.Driver = ArtifactDriverGCS
		cfg.Artifact.GCS.Bucket = v
	}

	if v := os.Getenv("GCS_ENDPOINT"); v != "" {
		cfg.Artifact.GCS.Endpoint = v
	}

	if v := os.Getenv("RASTER_DPI"); v != "" {
		dpi, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RASTER_DPI: %w", err)
		}
		cfg.Raster.DPI = dpi
	}

	if v := os.Getenv("OCR_LANGUAGE"); v != "" {
		cfg.OCR.Language = v
	}

	if v := os.Getenv("OCR_MIN_CONFIDENCE"); v != "" {
		conf, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OCR_MIN_CONFIDENCE: %w", err)
		}
		cfg.OCR.MinConfidence = conf
	}

	if v := os.Getenv("TESSDATA_PREFIX"); v != "" {
		cfg.OCR.TessdataPrefix = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	return nil
}
