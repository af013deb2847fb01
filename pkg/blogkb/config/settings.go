package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Settings is the application configuration.
type Settings struct {
	Store  StoreSettings  `mapstructure:"store"`
	LLM    LLMSettings    `mapstructure:"llm"`
	KB     KBSettings     `mapstructure:"kb"`
	Chat   ChatSettings   `mapstructure:"chat"`
	Log    LogSettings    `mapstructure:"log"`
	Server ServerSettings `mapstructure:"server"`
}

type StoreSettings struct {
	Driver     string        `mapstructure:"driver"`
	URI        string        `mapstructure:"uri"`
	Database   string        `mapstructure:"database"`
	Collection string        `mapstructure:"collection"`
	Path       string        `mapstructure:"path"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type LLMSettings struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type KBSettings struct {
	Output      string `mapstructure:"output"`
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Description string `mapstructure:"description"`
	PoweredBy   string `mapstructure:"powered_by"`
	Workers     int    `mapstructure:"workers"`
	Rules       string `mapstructure:"rules"`
}

type ChatSettings struct {
	TopK            int `mapstructure:"top_k"`
	HistoryLimit    int `mapstructure:"history_limit"`
	TextSearchLimit int `mapstructure:"text_search_limit"`
	FallbackLimit   int `mapstructure:"fallback_limit"`
	ContentWindow   int `mapstructure:"content_window"`
}

type LogSettings struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type ServerSettings struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", DriverMongo)
	v.SetDefault("store.uri", "")
	v.SetDefault("store.database", "")
	v.SetDefault("store.collection", "blogs")
	v.SetDefault("store.path", "data/blogs.db")
	v.SetDefault("store.timeout", 10*time.Second)

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("kb.output", "data/knowledge-base.json")
	v.SetDefault("kb.name", "Blog Knowledge Base")
	v.SetDefault("kb.version", "2.0.0")
	v.SetDefault("kb.description", "Knowledge base extracted from the blog collection")
	v.SetDefault("kb.powered_by", "blogkb")
	v.SetDefault("kb.workers", 1)
	v.SetDefault("kb.rules", "")

	v.SetDefault("chat.top_k", 6)
	v.SetDefault("chat.history_limit", 8)
	v.SetDefault("chat.text_search_limit", 10)
	v.SetDefault("chat.fallback_limit", 15)
	v.SetDefault("chat.content_window", 3000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("server.addr", ":8080")
}

// LoadSettings reads settings from the YAML file at path (optional) and the
// environment. Environment keys use the BLOGKB_ prefix with dots replaced by
// underscores; MONGODB_URI and OPENAI_API_KEY are honoured as well.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BLOGKB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("store.uri", "BLOGKB_STORE_URI", "EB_MONGODB_URI", "MONGODB_URI")
	_ = v.BindEnv("llm.api_key", "BLOGKB_LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.base_url", "BLOGKB_LLM_BASE_URL", "OPENAI_BASE_URL")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings for values the components cannot run with.
func (s *Settings) Validate() error {
	switch s.Store.Driver {
	case DriverMongo, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("%w: unknown store driver %q", internalerr.ErrInvalidConfig, s.Store.Driver)
	}
	if s.Chat.TopK <= 0 || s.Chat.HistoryLimit < 0 || s.Chat.TextSearchLimit <= 0 || s.Chat.FallbackLimit <= 0 {
		return fmt.Errorf("%w: chat limits must be positive", internalerr.ErrInvalidConfig)
	}
	if s.KB.Workers < 1 {
		return fmt.Errorf("%w: kb.workers must be at least 1", internalerr.ErrInvalidConfig)
	}
	return nil
}
