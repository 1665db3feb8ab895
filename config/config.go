// Package config loads qamatch settings from a YAML file and QAMATCH_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/poiesic/qamatch/ai"
	"github.com/poiesic/qamatch/memory"
	"github.com/poiesic/qamatch/search"
	"github.com/spf13/viper"
)

// FileName is the config file searched for, without extension.
const FileName = "qamatch"

// EnvPrefix prefixes every environment override, e.g. QAMATCH_SEARCH_TOP_K.
const EnvPrefix = "QAMATCH"

type Config struct {
	DB     DBConfig     `yaml:"db" mapstructure:"db"`
	AI     AIConfig     `yaml:"ai" mapstructure:"ai"`
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Memory MemoryConfig `yaml:"memory" mapstructure:"memory"`
}

type DBConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	Stemming bool   `yaml:"stemming" mapstructure:"stemming"`
}

type AIConfig struct {
	Backend   string `yaml:"backend" mapstructure:"backend"`
	Host      string `yaml:"host" mapstructure:"host"`
	Model     string `yaml:"model" mapstructure:"model"`
	APIToken  string `yaml:"api_token" mapstructure:"api_token"`
	Dimension int    `yaml:"dimension" mapstructure:"dimension"`
}

type SearchConfig struct {
	LexicalWeight      float64       `yaml:"w_l" mapstructure:"w_l"`
	SemanticWeight     float64       `yaml:"w_s" mapstructure:"w_s"`
	TopK               int           `yaml:"top_k" mapstructure:"top_k"`
	Threshold          float64       `yaml:"threshold" mapstructure:"threshold"`
	EmbedTimeout       time.Duration `yaml:"embed_timeout" mapstructure:"embed_timeout"`
	EmbeddingCacheSize int           `yaml:"embedding_cache_size" mapstructure:"embedding_cache_size"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

type MemoryConfig struct {
	CheckInterval time.Duration `yaml:"check_interval" mapstructure:"check_interval"`
	AlertWindow   time.Duration `yaml:"alert_window" mapstructure:"alert_window"`
}

var envVarRe = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)

func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func DefaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		DB: DBConfig{Path: "qamatch.db"},
		AI: AIConfig{
			Backend:  aiDefaults.Backend,
			Host:     aiDefaults.EmbeddingHost,
			Model:    aiDefaults.EmbeddingModel,
			APIToken: aiDefaults.APIToken,
		},
		Search: SearchConfig{
			LexicalWeight:      search.DefaultLexicalWeight,
			SemanticWeight:     search.DefaultSemanticWeight,
			TopK:               search.DefaultTopK,
			Threshold:          search.DefaultThreshold,
			EmbedTimeout:       search.DefaultEmbedTimeout,
			EmbeddingCacheSize: 1024,
		},
		Server: ServerConfig{Addr: ":8080"},
		Memory: MemoryConfig{
			CheckInterval: memory.DefaultCheckInterval,
			AlertWindow:   memory.DefaultAlertWindow,
		},
	}
}

// setDefaults registers every key so that environment variables are seen
// by Unmarshal even when the file does not mention them.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("db.path", c.DB.Path)
	v.SetDefault("db.stemming", c.DB.Stemming)
	v.SetDefault("ai.backend", c.AI.Backend)
	v.SetDefault("ai.host", c.AI.Host)
	v.SetDefault("ai.model", c.AI.Model)
	v.SetDefault("ai.api_token", c.AI.APIToken)
	v.SetDefault("ai.dimension", c.AI.Dimension)
	v.SetDefault("search.w_l", c.Search.LexicalWeight)
	v.SetDefault("search.w_s", c.Search.SemanticWeight)
	v.SetDefault("search.top_k", c.Search.TopK)
	v.SetDefault("search.threshold", c.Search.Threshold)
	v.SetDefault("search.embed_timeout", c.Search.EmbedTimeout)
	v.SetDefault("search.embedding_cache_size", c.Search.EmbeddingCacheSize)
	v.SetDefault("server.addr", c.Server.Addr)
	v.SetDefault("memory.check_interval", c.Memory.CheckInterval)
	v.SetDefault("memory.alert_window", c.Memory.AlertWindow)
}

// Load reads configuration. An explicit path must exist; otherwise
// qamatch.yaml is searched for in the working directory and in the user
// config directory, and a missing file means defaults. QAMATCH_ variables
// override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, FileName))
		} else if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.AI.APIToken = expandEnv(cfg.AI.APIToken)
	cfg.AI.Host = expandEnv(cfg.AI.Host)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return errors.New("config: db.path is required")
	}
	if c.Search.LexicalWeight < 0 || c.Search.SemanticWeight < 0 {
		return errors.New("config: search weights must not be negative")
	}
	if c.Search.LexicalWeight+c.Search.SemanticWeight == 0 {
		return errors.New("config: search weights must not both be zero")
	}
	if c.Search.TopK <= 0 {
		return errors.New("config: search.top_k must be positive")
	}
	if c.Search.EmbedTimeout <= 0 {
		return errors.New("config: search.embed_timeout must be positive")
	}
	if c.Search.EmbeddingCacheSize < 0 {
		return errors.New("config: search.embedding_cache_size must not be negative")
	}
	if c.Memory.CheckInterval <= 0 {
		return errors.New("config: memory.check_interval must be positive")
	}
	if c.Memory.AlertWindow < 0 {
		return errors.New("config: memory.alert_window must not be negative")
	}
	return c.AIConfig().Validate()
}

// AIConfig converts the ai section.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithBackend(c.AI.Backend),
		ai.WithEmbeddingHost(c.AI.Host),
		ai.WithEmbeddingModel(c.AI.Model),
		ai.WithAPIToken(c.AI.APIToken),
		ai.WithDimension(c.AI.Dimension),
	)
}

// SearchOptions converts the search section.
func (c *Config) SearchOptions() []search.Option {
	return []search.Option{
		search.WithWeights(c.Search.LexicalWeight, c.Search.SemanticWeight),
		search.WithTopK(c.Search.TopK),
		search.WithThreshold(c.Search.Threshold),
		search.WithEmbedTimeout(c.Search.EmbedTimeout),
		search.WithEmbeddingCache(c.Search.EmbeddingCacheSize),
	}
}

// WatcherOptions converts the memory section.
func (c *Config) WatcherOptions() []memory.WatcherOption {
	return []memory.WatcherOption{
		memory.WithInterval(c.Memory.CheckInterval),
		memory.WithWindow(c.Memory.AlertWindow),
	}
}
