// Package config provides YAML-based configuration for the filevault server and client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration document
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Client  ClientConfig  `yaml:"client"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port                 int    `yaml:"port"`
	BindAddress          string `yaml:"bind_address"`
	EnableCORS           bool   `yaml:"enable_cors"`
	AllowOrigins         string `yaml:"allow_origins"`
	ReadTimeout          int    `yaml:"read_timeout_seconds"`
	WriteTimeout         int    `yaml:"write_timeout_seconds"`
	IdleTimeout          int    `yaml:"idle_timeout_seconds"`
	BodyLimit            string `yaml:"body_limit"`
	EnableRequestLogging bool   `yaml:"enable_request_logging"`
	EnableMetrics        bool   `yaml:"enable_metrics"`
}

// StorageConfig contains blob and index settings
type StorageConfig struct {
	Backend          string   `yaml:"backend"` // "local" or "s3"
	DataDirectory    string   `yaml:"data_directory"`
	UploadsDirectory string   `yaml:"uploads_directory"`
	PersistIndex     bool     `yaml:"persist_index"`
	IndexFile        string   `yaml:"index_file"`
	S3               S3Config `yaml:"s3"`
}

// S3Config holds S3/MinIO connection settings
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// LoggingConfig contains zap logger settings
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json or console
	OutputPath string `yaml:"output_path"`
}

// ClientConfig contains settings for the terminal front-end
type ClientConfig struct {
	BaseURL           string `yaml:"base_url"`
	DownloadDirectory string `yaml:"download_directory"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"` // 0 disables the timeout
	LogFile           string `yaml:"log_file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:                 5000,
			BindAddress:          "127.0.0.1",
			EnableCORS:           false,
			AllowOrigins:         "*",
			ReadTimeout:          30,
			WriteTimeout:         30,
			IdleTimeout:          120,
			BodyLimit:            "512M",
			EnableRequestLogging: true,
			EnableMetrics:        true,
		},
		Storage: StorageConfig{
			Backend:          "local",
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			PersistIndex:     false,
			IndexFile:        "./data/index.msgpack",
			S3: S3Config{
				Endpoint: "http://localhost:9000",
				Bucket:   "filevault",
				Region:   "us-east-1",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Client: ClientConfig{
			BaseURL:           "http://127.0.0.1:5000",
			DownloadDirectory: ".",
		},
	}
}

// LoadConfig loads configuration from a YAML file, writing the defaults there
// first if the file does not exist.
func LoadConfig(configPath string) (*AppConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		cfg.applyEnvironmentOverrides()
		cfg.resolvePaths(filepath.Dir(configPath))
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.resolvePaths(filepath.Dir(configPath))

	return cfg, nil
}

// Parse decodes a YAML document on top of the defaults, so missing keys keep
// their default values.
func Parse(data []byte) (*AppConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# filevault configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.IndexFile = filepath.Join(dataDir, "index.msgpack")
	}

	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	if url := os.Getenv("FILEVAULT_URL"); url != "" {
		c.Client.BaseURL = url
	}

	overrideString(&c.Storage.S3.Endpoint, "S3_ENDPOINT")
	overrideString(&c.Storage.S3.Bucket, "S3_BUCKET")
	overrideString(&c.Storage.S3.AccessKey, "S3_ACCESS_KEY")
	overrideString(&c.Storage.S3.SecretKey, "S3_SECRET_KEY")
	overrideString(&c.Storage.S3.Region, "S3_REGION")
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.IndexFile,
		&c.Client.DownloadDirectory,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
	if c.Client.LogFile != "" && !filepath.IsAbs(c.Client.LogFile) {
		c.Client.LogFile = filepath.Join(configDir, c.Client.LogFile)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// ClientTimeout returns the configured request timeout; zero means none.
func (c *AppConfig) ClientTimeout() time.Duration {
	return time.Duration(c.Client.TimeoutSeconds) * time.Second
}

// Validate reports settings the server cannot start with
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Storage.PersistIndex && c.Storage.IndexFile == "" {
		return fmt.Errorf("persist_index requires index_file")
	}
	return nil
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{c.Storage.DataDirectory}
	if c.Storage.Backend == "local" {
		dirs = append(dirs, c.Storage.UploadsDirectory)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
