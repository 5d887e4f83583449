package types

import (
	"os"
	"path/filepath"
	"time"
)

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Environment is "dev" or "prod". Dev enables debug logging.
	Environment string `json:"environment" yaml:"environment" mapstructure:"environment"`

	// CORSOrigins lists the allowed origins ("*" allows any).
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" mapstructure:"cors_origins"`

	// ReadTimeout bounds reading a full request, uploads included (default 15m).
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`

	// MaxRequestBytes caps the request body before multipart parsing (default 1 GiB).
	MaxRequestBytes int64 `json:"max_request_bytes" yaml:"max_request_bytes" mapstructure:"max_request_bytes"`

	// ScratchDir is the root under which per-request workspaces are created.
	ScratchDir string `json:"scratch_dir" yaml:"scratch_dir" mapstructure:"scratch_dir"`

	// ScratchRetention is the age after which abandoned workspaces are swept (default 1h).
	ScratchRetention time.Duration `json:"scratch_retention" yaml:"scratch_retention" mapstructure:"scratch_retention"`

	// SweepInterval is how often the sweeper runs (default 15m).
	SweepInterval time.Duration `json:"sweep_interval" yaml:"sweep_interval" mapstructure:"sweep_interval"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	// LogFormat is json or text.
	LogFormat string `json:"log_format" yaml:"log_format" mapstructure:"log_format"`
}

// ContainerConfig runs external tools inside a container image instead of
// binaries installed on the host.
type ContainerConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Image   string `json:"image" yaml:"image" mapstructure:"image"`
}

// ToolsConfig names the external converters and bounds their run time.
type ToolsConfig struct {
	// Timeout bounds every subprocess invocation; the process is killed on expiry.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// LibreOffice lists candidate binaries for the office suite, tried in order.
	LibreOffice []string `json:"libreoffice" yaml:"libreoffice" mapstructure:"libreoffice"`

	// Pandoc lists candidate binaries for the markup converter.
	Pandoc []string `json:"pandoc" yaml:"pandoc" mapstructure:"pandoc"`

	// ImageMagick lists candidate binaries for the first image fallback.
	ImageMagick []string `json:"imagemagick" yaml:"imagemagick" mapstructure:"imagemagick"`

	// Vips lists candidate binaries for the second image fallback.
	Vips []string `json:"vips" yaml:"vips" mapstructure:"vips"`

	Container ContainerConfig `json:"container" yaml:"container" mapstructure:"container"`
}

// ImageConfig holds settings for the in-process image encoder.
type ImageConfig struct {
	// Quality is the lossy encoder quality, 1-100 (default 85).
	Quality int `json:"quality" yaml:"quality" mapstructure:"quality"`
}

// LimitsConfig holds per-category upload limits.
type LimitsConfig struct {
	// MaxSize is the per-file size limit in bytes for each category.
	MaxSize map[FormatCategory]int64 `json:"max_size" yaml:"max_size" mapstructure:"max_size"`

	// MaxCount is the per-request file count limit for each category.
	MaxCount map[FormatCategory]int `json:"max_count" yaml:"max_count" mapstructure:"max_count"`

	// MaxBatch caps the number of files in one batch request (default 10).
	MaxBatch int `json:"max_batch" yaml:"max_batch" mapstructure:"max_batch"`
}

// SizeLimit returns the size limit for c, or 0 when c has none.
func (l LimitsConfig) SizeLimit(c FormatCategory) int64 {
	return l.MaxSize[c]
}

// CountLimit returns the count limit for c, or 0 when c has none.
func (l LimitsConfig) CountLimit(c FormatCategory) int {
	return l.MaxCount[c]
}

// HistoryConfig holds settings for the conversion history database.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"`

	// MaxResults is the default number of rows returned by queries (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ClientConfig holds settings for talking to a remote zconvert server.
type ClientConfig struct {
	// ServerURL is the base URL of the server; empty means offline only.
	ServerURL string `json:"server_url" yaml:"server_url" mapstructure:"server_url"`

	Timeout    time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent  string        `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Config groups every section of zconvert.yaml.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	Tools   ToolsConfig   `json:"tools" yaml:"tools" mapstructure:"tools"`
	Image   ImageConfig   `json:"image" yaml:"image" mapstructure:"image"`
	Limits  LimitsConfig  `json:"limits" yaml:"limits" mapstructure:"limits"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Client  ClientConfig  `json:"client" yaml:"client" mapstructure:"client"`
}

const mb = 1024 * 1024

// DefaultLimits returns the stock per-category limits.
func DefaultLimits() LimitsConfig {
	return LimitsConfig{
		MaxSize: map[FormatCategory]int64{
			CategoryImage:    50 * mb,
			CategoryVideo:    100 * mb,
			CategoryAudio:    30 * mb,
			CategoryDocument: 20 * mb,
		},
		MaxCount: map[FormatCategory]int{
			CategoryImage:    5,
			CategoryVideo:    3,
			CategoryAudio:    10,
			CategoryDocument: 10,
		},
		MaxBatch: 10,
	}
}

// DefaultConfig returns the configuration used when no file or environment
// overrides a key.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:             ":8080",
			Environment:      "prod",
			CORSOrigins:      []string{"*"},
			ReadTimeout:      15 * time.Minute,
			MaxRequestBytes:  1024 * mb,
			ScratchDir:       filepath.Join(os.TempDir(), "zconvert"),
			ScratchRetention: time.Hour,
			SweepInterval:    15 * time.Minute,
			LogLevel:         "info",
			LogFormat:        "json",
		},
		Tools: ToolsConfig{
			Timeout:     2 * time.Minute,
			LibreOffice: []string{"soffice", "libreoffice"},
			Pandoc:      []string{"pandoc"},
			ImageMagick: []string{"magick", "convert"},
			Vips:        []string{"vips"},
			Container: ContainerConfig{
				Image: "zconvert-tools:latest",
			},
		},
		Image:  ImageConfig{Quality: 85},
		Limits: DefaultLimits(),
		History: HistoryConfig{
			Enabled:    true,
			Path:       "zconvert.db",
			MaxResults: 50,
		},
		Client: ClientConfig{
			Timeout:    5 * time.Minute,
			MaxRetries: 3,
			UserAgent:  "zconvert/0.1",
		},
	}
}
