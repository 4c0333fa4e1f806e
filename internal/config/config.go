// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

// AdminConfig holds the ops listener (metrics, health) port.
type AdminConfig struct {
	Port int `yaml:"port"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"` // empty means in-memory session store
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // conversation lease
}

type AIConfig struct {
	OpenAIKey       string  `yaml:"openai_key"`
	GeminiKey       string  `yaml:"gemini_key"`
	GeminiURL       string  `yaml:"gemini_url"`
	GatewayKey      string  `yaml:"gateway_key"`
	GatewayBaseURL  string  `yaml:"gateway_base_url"` // OpenAI-compatible gateway
	DefaultModel    string  `yaml:"default_model"`
	ConcurrentLimit int     `yaml:"concurrent_limit"` // max concurrent AI calls
	MaxTokens       int     `yaml:"max_tokens"`
	Temperature     float64 `yaml:"temperature"`
}

type KeywordsConfig struct {
	Affirmative []string `yaml:"affirmative"`
	Negative    []string `yaml:"negative"`
	Cancel      []string `yaml:"cancel"`
	Reschedule  []string `yaml:"reschedule"`
	Schedule    []string `yaml:"schedule"`
	Lookup      []string `yaml:"lookup"`
}

type ChatConfig struct {
	ClinicName        string         `yaml:"clinic_name"`
	HistoryWindow     int            `yaml:"history_window"`
	PromptTokenBudget int            `yaml:"prompt_token_budget"`
	RateLimit         int            `yaml:"rate_limit"`  // messages per window
	RateWindow        time.Duration  `yaml:"rate_window"` // rate limit window
	LockTTL           time.Duration  `yaml:"lock_ttl"`    // per-user turn lock lease
	Keywords          KeywordsConfig `yaml:"keywords"`
}

// BackendConfig points at the clinic's follow-up service.
type BackendConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	HealthInterval time.Duration `yaml:"health_interval"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Admin   AdminConfig   `yaml:"admin"`
	Redis   RedisConfig   `yaml:"redis"`
	AI      AIConfig      `yaml:"ai"`
	Chat    ChatConfig    `yaml:"chat"`
	Backend BackendConfig `yaml:"backend"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Secrets may come from the environment (a .env file in dev) instead of
// the YAML file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.AI.OpenAIKey == "" {
		c.AI.OpenAIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.AI.GeminiKey == "" {
		c.AI.GeminiKey = v
	}
	if v := os.Getenv("GATEWAY_API_KEY"); v != "" && c.AI.GatewayKey == "" {
		c.AI.GatewayKey = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" && c.Redis.Password == "" {
		c.Redis.Password = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Admin.Port <= 0 {
		c.Admin.Port = 9090
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)

	if c.AI.DefaultModel == "" {
		c.AI.DefaultModel = "gpt-4o-mini"
	}
	if c.AI.ConcurrentLimit <= 0 {
		c.AI.ConcurrentLimit = 16
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = 150
	}
	if c.AI.Temperature <= 0 {
		c.AI.Temperature = 0.7
	}

	if c.Chat.HistoryWindow <= 0 {
		c.Chat.HistoryWindow = 15
	}
	if c.Chat.PromptTokenBudget <= 0 {
		c.Chat.PromptTokenBudget = 3000
	}
	if c.Chat.RateLimit <= 0 {
		c.Chat.RateLimit = 20
	}
	if c.Chat.RateWindow <= 0 {
		c.Chat.RateWindow = time.Minute
	}
	if c.Chat.LockTTL <= 0 {
		c.Chat.LockTTL = 30 * time.Second
	}

	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Backend.HealthInterval <= 0 {
		c.Backend.HealthInterval = time.Minute
	}
}

func (c *Config) validate() error {
	if c.Runtime.Dev {
		return nil
	}
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	if c.AI.OpenAIKey == "" && c.AI.GeminiKey == "" && c.AI.GatewayBaseURL == "" {
		return errors.New("no AI provider configured: set ai.openai_key, ai.gemini_key or ai.gateway_base_url")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
