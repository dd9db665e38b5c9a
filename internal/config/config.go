package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Slots     SlotsConfig     `yaml:"slots"`
	Retention RetentionConfig `yaml:"retention"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type StorageConfig struct {
	Root    string `yaml:"root"`
	BaseURL string `yaml:"base_url"`
}

type SlotsConfig struct {
	MaxSlots      int `yaml:"max_slots"`
	SlotsPerGroup int `yaml:"slots_per_group"`
	AssignRetries int `yaml:"assign_retries"`
}

type RetentionConfig struct {
	Window        time.Duration `yaml:"window"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/portal.db",
		},
		Storage: StorageConfig{
			Root:    "./data/files",
			BaseURL: "/files",
		},
		Slots: SlotsConfig{
			MaxSlots:      50,
			SlotsPerGroup: 10,
			AssignRetries: 3,
		},
		Retention: RetentionConfig{
			Window:        24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func LoadFromEnv() *Config {
	cfg := defaults()

	if v := os.Getenv("PORTAL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("PORTAL_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("PORTAL_STORAGE_ROOT"); v != "" {
		cfg.Storage.Root = v
	}

	if v := os.Getenv("PORTAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Storage.Root == "" {
		return fmt.Errorf("storage root is required")
	}

	if c.Slots.MaxSlots < 1 {
		return fmt.Errorf("max slots must be at least 1")
	}

	if c.Slots.SlotsPerGroup < 1 {
		return fmt.Errorf("slots per group must be at least 1")
	}

	if groups := (c.Slots.MaxSlots + c.Slots.SlotsPerGroup - 1) / c.Slots.SlotsPerGroup; groups > 26 {
		return fmt.Errorf("slot pool needs %d groups, only 26 group letters available", groups)
	}

	if c.Slots.AssignRetries < 1 {
		return fmt.Errorf("assign retries must be at least 1")
	}

	if c.Retention.Window <= 0 {
		return fmt.Errorf("retention window must be positive")
	}

	if c.Retention.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json":  true,
		"text":  true,
		"plain": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text, plain)", c.Logging.Format)
	}

	return nil
}
