// Package config loads the dashboard's configuration from a .env file, the
// environment, and an optional YAML file for tuning knobs.
package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dileep-u-k/weather-companion/internal/agent"
	"github.com/dileep-u-k/weather-companion/internal/conversation"
	"github.com/dileep-u-k/weather-companion/internal/llm"
	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// Supported reasoning backends.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const defaultConfigFile = "config.yaml"

// WeatherConfig tunes the Open-Meteo clients.
type WeatherConfig struct {
	GeocodingURL string                `yaml:"geocoding_url"`
	Endpoints    weather.Endpoints     `yaml:",inline"`
	Timeout      time.Duration         `yaml:"timeout"`
	Backoff      weather.BackoffConfig `yaml:"backoff"`
}

// HTTPClientConfig builds the gateway's HTTP settings.
func (w WeatherConfig) HTTPClientConfig() weather.HTTPClientConfig {
	cfg := weather.DefaultHTTPClientConfig()
	if w.Timeout > 0 {
		cfg.Client = &http.Client{Timeout: w.Timeout}
	}
	if w.Backoff.MaxRetries > 0 || w.Backoff.InitialInterval > 0 {
		cfg.Backoff = w.Backoff
	}
	return cfg
}

// SessionConfig controls conversation storage.
type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// AppConfig is the complete configuration of the dashboard and the CLI.
type AppConfig struct {
	Provider  string `yaml:"-"`
	APIKey    string `yaml:"-"`
	BaseURL   string `yaml:"-"`
	RedisAddr string `yaml:"-"`
	Port      string `yaml:"-"`

	Agent   agent.Config  `yaml:"agent"`
	Weather WeatherConfig `yaml:"weather"`
	Session SessionConfig `yaml:"session"`
}

// Load reads configuration. The .env file is only consulted outside release
// mode; in containers the environment is provided directly.
func Load() (*AppConfig, error) {
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	cfg := &AppConfig{
		Agent: agent.Config{MaxToolRounds: agent.DefaultMaxToolRounds},
		Weather: WeatherConfig{
			Timeout: weather.DefaultTimeout,
			Backoff: weather.DefaultHTTPClientConfig().Backoff,
		},
		Session: SessionConfig{TTL: conversation.DefaultSessionTTL},
	}

	path := os.Getenv("CONFIG_FILE")
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a YAML file over the defaults. A missing default file is
// not an error; a missing explicitly named file is.
func (c *AppConfig) loadFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) loadEnv() error {
	c.Provider = strings.ToLower(os.Getenv("LLM_PROVIDER"))
	if c.Provider == "" {
		c.Provider = ProviderGroq
	}
	c.BaseURL = os.Getenv("LLM_BASE_URL")
	c.RedisAddr = os.Getenv("REDIS_ADDR")
	c.Port = os.Getenv("PORT")
	if c.Port == "" {
		c.Port = "8080"
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.Agent.Generation.Model = model
	}

	switch c.Provider {
	case ProviderGroq:
		c.APIKey = os.Getenv("GROQ_API_KEY")
		if c.BaseURL == "" {
			c.BaseURL = llm.GroqBaseURL
		}
		if c.Agent.Generation.Model == "" {
			c.Agent.Generation.Model = llm.DefaultGroqModel
		}
	case ProviderOpenAI:
		c.APIKey = os.Getenv("OPENAI_API_KEY")
		if c.BaseURL == "" {
			c.BaseURL = llm.OpenAIBaseURL
		}
		if c.Agent.Generation.Model == "" {
			c.Agent.Generation.Model = llm.DefaultOpenAIModel
		}
	case ProviderGemini:
		c.APIKey = os.Getenv("GEMINI_API_KEY")
		if c.Agent.Generation.Model == "" {
			c.Agent.Generation.Model = llm.DefaultGeminiModel
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (want groq, openai or gemini)", c.Provider)
	}
	return nil
}

// NewBackend creates the reasoning backend selected by LLM_PROVIDER.
func (c *AppConfig) NewBackend(ctx context.Context) (llm.LLMClient, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("no API key set for provider %s", c.Provider)
	}
	if c.Provider == ProviderGemini {
		client, err := llm.NewGeminiClient(ctx, c.APIKey, c.Agent.Generation.Model)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	client, err := llm.NewOpenAIClient(c.APIKey, c.BaseURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewWeather creates the geocoder and gateway from the weather settings.
func (c *AppConfig) NewWeather() (*weather.OpenMeteoGeocoder, *weather.OpenMeteoClient) {
	httpCfg := c.Weather.HTTPClientConfig()
	return weather.NewOpenMeteoGeocoder(c.Weather.GeocodingURL, httpCfg),
		weather.NewOpenMeteoClient(c.Weather.Endpoints, httpCfg)
}
