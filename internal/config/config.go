// Package config provides YAML-based configuration loading for Quayside.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Quayside configuration, loaded from quayside.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Generator GeneratorConfig `yaml:"generator"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"` // external URL used in OAuth redirects
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "mysql" or "sqlite"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Path     string `yaml:"path"` // sqlite file path
}

// AuthConfig holds token and OAuth provider settings.
type AuthConfig struct {
	// TokenSecret signs HS256 API tokens. Override with QUAYSIDE_TOKEN_SECRET.
	TokenSecret string      `yaml:"token_secret"`
	GitHub      OAuthClient `yaml:"github"`
	Google      OAuthClient `yaml:"google"`
}

// OAuthClient holds credentials for one OAuth provider.
type OAuthClient struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// GeneratorConfig configures the task-generation LLM client.
type GeneratorConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"` // override with QUAYSIDE_GENERATOR_KEY
	TimeoutMs int    `yaml:"timeout_ms"`
}

// NotifyConfig configures outbound chat notifications and schedules.
type NotifyConfig struct {
	SlackToken     string `yaml:"slack_token"`
	SlackChannel   string `yaml:"slack_channel"`
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
	// DigestCron is a 5-field cron expression for the board digest.
	DigestCron string `yaml:"digest_cron"`
	// SweepCron is a 5-field cron expression for the priority
	// normalization sweep across all projects.
	SweepCron string `yaml:"sweep_cron"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "quayside"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Path == "" {
		c.Database.Path = "quayside.db"
	}
	if c.Generator.Endpoint == "" {
		c.Generator.Endpoint = "https://api.openai.com/v1"
	}
	if c.Generator.Model == "" {
		c.Generator.Model = "gpt-3.5-turbo"
	}
	if c.Generator.TimeoutMs == 0 {
		c.Generator.TimeoutMs = 30000
	}
}

// applyEnv overlays secrets from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("QUAYSIDE_TOKEN_SECRET"); v != "" {
		c.Auth.TokenSecret = v
	}
	if v := os.Getenv("QUAYSIDE_GENERATOR_KEY"); v != "" {
		c.Generator.APIKey = v
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("config: unknown database driver %q (want mysql or sqlite)", c.Database.Driver)
	}
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("config: auth.token_secret is required (or set QUAYSIDE_TOKEN_SECRET)")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	return nil
}
