package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is built once at startup and then only read.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	LLM     LLMConfig     `yaml:"llm"`
	Prompt  PromptConfig  `yaml:"prompt"`
	Chat    ChatConfig    `yaml:"chat"`
	Log     LogConfig     `yaml:"log"`
	Phase2  Phase2Config  `yaml:"phase2"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// BackendConfig points the gateway at the Phase II todo API.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type LLMConfig struct {
	Provider        string        `yaml:"provider"` // openai | gemini
	APIKey          string        `yaml:"-"`
	Model           string        `yaml:"model"`
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxToolRounds   int           `yaml:"max_tool_rounds"`
	ToolConcurrency int           `yaml:"tool_concurrency"`
	Temperature     float64       `yaml:"temperature"`
}

// PromptConfig holds the fixed instructions sent with every conversation.
// Empty values fall back to the built-in prompt in package ai.
type PromptConfig struct {
	System   string `yaml:"system"`
	Fallback string `yaml:"fallback"`
}

type ChatConfig struct {
	MaxMessageLength int `yaml:"max_message_length"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Phase2Config configures the reference todo backend (cmd/api).
type Phase2Config struct {
	Addr       string        `yaml:"addr"`
	Store      string        `yaml:"store"` // memory | postgres
	DBHost     string        `yaml:"db_host"`
	DBPort     int           `yaml:"db_port"`
	DBUser     string        `yaml:"db_user"`
	DBPassword string        `yaml:"-"`
	DBName     string        `yaml:"db_name"`
	JWTSecret  string        `yaml:"-"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

// Load reads the optional YAML file named by TODOCHAT_CONFIG, applies
// environment overrides and fills defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("TODOCHAT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Server.Addr, "CHAT_ADDR")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}

	setString(&c.Backend.BaseURL, "BACKEND_URL")
	setDuration(&c.Backend.Timeout, "BACKEND_TIMEOUT")

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setDuration(&c.LLM.Timeout, "LLM_TIMEOUT")
	setInt(&c.LLM.MaxToolRounds, "LLM_MAX_TOOL_ROUNDS")
	setInt(&c.LLM.ToolConcurrency, "LLM_TOOL_CONCURRENCY")

	// Provider-specific keys, same names the vendors document.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" && c.LLM.Model == "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		if c.LLM.Provider == "" || c.LLM.Provider == "gemini" {
			c.LLM.APIKey = v
			c.LLM.Provider = "gemini"
		}
	}

	setString(&c.Prompt.System, "CHAT_SYSTEM_PROMPT")
	setInt(&c.Chat.MaxMessageLength, "CHAT_MAX_MESSAGE_LENGTH")

	setString(&c.Log.Level, "LOG_LEVEL")
	if v := os.Getenv("LOG_DEVELOPMENT"); v != "" {
		c.Log.Development, _ = strconv.ParseBool(v)
	}

	setString(&c.Phase2.Addr, "API_ADDR")
	setString(&c.Phase2.Store, "API_STORE")
	setString(&c.Phase2.DBHost, "DB_HOST")
	setInt(&c.Phase2.DBPort, "DB_PORT")
	setString(&c.Phase2.DBUser, "DB_USER")
	setString(&c.Phase2.DBPassword, "DB_PASSWORD")
	setString(&c.Phase2.DBName, "DB_NAME")
	setString(&c.Phase2.JWTSecret, "JWT_SECRET")
	setDuration(&c.Phase2.TokenTTL, "JWT_TTL")
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8081"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}

	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8080"
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 10 * time.Second
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "gemini":
			c.LLM.Model = "gemini-2.5-flash"
		default:
			c.LLM.Model = "gpt-4o-mini"
		}
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 30 * time.Second
	}
	if c.LLM.MaxToolRounds <= 0 {
		c.LLM.MaxToolRounds = 5
	}
	if c.LLM.ToolConcurrency <= 0 {
		c.LLM.ToolConcurrency = 4
	}

	if c.Chat.MaxMessageLength <= 0 {
		c.Chat.MaxMessageLength = 4000
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Phase2.Addr == "" {
		c.Phase2.Addr = ":8080"
	}
	if c.Phase2.Store == "" {
		c.Phase2.Store = "memory"
	}
	if c.Phase2.DBPort == 0 {
		c.Phase2.DBPort = 5432
	}
	if c.Phase2.TokenTTL <= 0 {
		c.Phase2.TokenTTL = 7 * 24 * time.Hour
	}
}

// Validate rejects combinations that cannot work at runtime.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	switch c.Phase2.Store {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown api store %q", c.Phase2.Store)
	}
	return nil
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Phase2.DBHost, c.Phase2.DBPort, c.Phase2.DBUser, c.Phase2.DBPassword, c.Phase2.DBName,
	)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
