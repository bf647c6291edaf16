package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Upload    UploadConfig    `yaml:"upload" envconfig:"UPLOAD"`
	Session   SessionConfig   `yaml:"session" envconfig:"SESSION"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// UploadConfig bounds uploaded spreadsheet batches.
type UploadConfig struct {
	MaxFileBytes  int64 `yaml:"max_file_bytes" envconfig:"MAX_FILE_BYTES"`
	MaxBatchFiles int   `yaml:"max_batch_files" envconfig:"MAX_BATCH_FILES"`
}

// SessionConfig controls session-scoped working set retention.
type SessionConfig struct {
	IdleTTL          time.Duration `yaml:"idle_ttl" envconfig:"IDLE_TTL"`
	EvictionInterval time.Duration `yaml:"eviction_interval" envconfig:"EVICTION_INTERVAL"`
	CookieName       string        `yaml:"cookie_name" envconfig:"COOKIE_NAME"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "console",
			FilePath:    "logs/app.log",
			Development: true,
		},
		Upload: UploadConfig{
			MaxFileBytes:  10 << 20,
			MaxBatchFiles: 16,
		},
		Session: SessionConfig{
			IdleTTL:          2 * time.Hour,
			EvictionInterval: 10 * time.Minute,
			CookieName:       "dw_session",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}

// Load builds the configuration with precedence env > file > defaults.
func Load() (*Config, error) {
	cfg := Default()

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Only variables that are actually set override; the struct tags
	// carry no defaults so unset variables leave file values alone.
	if err := envconfig.Process("DWATCH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func configFilePath() string {
	if path := os.Getenv("DWATCH_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

// loadFromFile overlays yaml values on top of cfg; keys absent from
// the file keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Upload.MaxFileBytes <= 0 {
		return fmt.Errorf("upload max_file_bytes must be positive, got %d", c.Upload.MaxFileBytes)
	}
	if c.Upload.MaxBatchFiles <= 0 {
		return fmt.Errorf("upload max_batch_files must be positive, got %d", c.Upload.MaxBatchFiles)
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie_name must not be empty")
	}
	switch c.Logging.Output {
	case "", "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %s", c.Logging.Output)
	}
	return nil
}
