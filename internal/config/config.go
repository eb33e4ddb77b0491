package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Translation TranslationConfig `yaml:"translation" validate:"required"`
	Chat        ChatConfig        `yaml:"chat" validate:"required"`
	News        NewsConfig        `yaml:"news"`
	Paths       PathsConfig       `yaml:"paths"`
	Limits      Limits            `yaml:"limits" validate:"required"`
}

type TranslationConfig struct {
	APIKey  string `yaml:"api_key" validate:"required,min=10"`
	BaseURL string `yaml:"base_url" validate:"required,url"`
	Speaker string `yaml:"speaker"`
	Timeout int    `yaml:"timeout" validate:"required,min=5,max=600"`
}

type ChatConfig struct {
	APIKey  string `yaml:"api_key" validate:"required,min=10"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	Model   string `yaml:"model" validate:"required"`
	Timeout int    `yaml:"timeout" validate:"required,min=5,max=600"`
}

type NewsConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	Query   string `yaml:"query"`
}

type PathsConfig struct {
	CacheDB string `yaml:"cache_db" validate:"omitempty,filepath"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configPath := getConfigPath()

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.fillFromEnv(); err != nil {
			return nil, err
		}
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("validating config: %w", err)
		}
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.fillFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a config with every non-secret field populated.
func Default() *Config {
	return &Config{
		Translation: TranslationConfig{
			BaseURL: "https://dhruva-api.bhashini.gov.in/services/inference",
			Speaker: "female1",
			Timeout: 60,
		},
		Chat: ChatConfig{
			Model:   "gpt-4o-mini",
			Timeout: 120,
		},
		News: NewsConfig{
			BaseURL: "https://newsapi.org/v2",
			Query:   "agriculture OR farming india",
		},
		Limits: DefaultLimits(),
	}
}

func getConfigPath() string {
	if path := os.Getenv("KRISHICORE_CONFIG"); path != "" {
		return path
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "krishicore", "config.yaml")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "krishicore", "config.yaml")
}

// expandTilde expands a tilde (~) at the beginning of a path to the user's home directory.
func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func (c *Config) fillFromEnv() error {
	if c.Translation.APIKey == "" || strings.HasPrefix(c.Translation.APIKey, "${") {
		c.Translation.APIKey = os.Getenv("BHASHINI_API_KEY")
	}
	if c.Chat.APIKey == "" || strings.HasPrefix(c.Chat.APIKey, "${") {
		c.Chat.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.News.APIKey == "" || strings.HasPrefix(c.News.APIKey, "${") {
		c.News.APIKey = os.Getenv("NEWS_API_KEY")
	}
	return nil
}

func (c *Config) validate() error {
	if c.Paths.CacheDB == "" {
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			c.Paths.CacheDB = filepath.Join(xdgData, "krishicore", "cache.db")
		} else {
			home, _ := os.UserHomeDir()
			c.Paths.CacheDB = filepath.Join(home, ".local", "share", "krishicore", "cache.db")
		}
	} else {
		c.Paths.CacheDB = expandTilde(c.Paths.CacheDB)
	}

	if c.Limits.TranslationCacheSize == 0 {
		c.Limits = DefaultLimits()
	}

	validate := validator.New()

	validate.RegisterValidation("filepath", func(fl validator.FieldLevel) bool {
		// Existence is checked at open time; here we only reject empty paths.
		return fl.Field().String() != ""
	})

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}
