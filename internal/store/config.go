package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Universe  []string `yaml:"universe"`
	MaxEvents int      `yaml:"max_events"`

	Analysis struct {
		Horizons         []int `yaml:"horizons"`
		MinRegimeHistory int   `yaml:"min_regime_history"`
	} `yaml:"analysis"`

	FMP struct {
		APIKeyEnv         string  `yaml:"api_key_env"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"fmp"`

	LLM struct {
		Provider    string  `yaml:"provider"`
		EndpointEnv string  `yaml:"endpoint_env"`
		APIKeyEnv   string  `yaml:"api_key_env"`
		Deployment  string  `yaml:"deployment"`
		APIVersion  string  `yaml:"api_version"`
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
		Concurrency int     `yaml:"concurrency"`
		MaxChars    int     `yaml:"max_transcript_chars"`
	} `yaml:"llm"`

	Database struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func (c *Config) Validate() error {
	if len(c.Universe) == 0 {
		return errors.New("universe cannot be empty")
	}
	if c.MaxEvents <= 0 {
		return fmt.Errorf("max_events must be positive, got %d", c.MaxEvents)
	}
	for _, h := range c.Analysis.Horizons {
		if h <= 0 {
			return fmt.Errorf("analysis.horizons must be positive, got %d", h)
		}
	}
	if c.Analysis.MinRegimeHistory < 2 {
		return fmt.Errorf("analysis.min_regime_history must be at least 2, got %d", c.Analysis.MinRegimeHistory)
	}
	if c.LLM.Provider != "azure" && c.LLM.Provider != "noop" {
		return fmt.Errorf("llm.provider must be 'azure' or 'noop', got '%s'", c.LLM.Provider)
	}
	if c.Database.Enabled {
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("database.host and database.name are required when database.enabled is true")
		}
	}
	return nil
}

// MissingRuntimeConfig lists the environment variables the service needs
// but cannot resolve. The FMP key is optional when the database covers
// the data needs; the Azure settings are optional under the noop
// extractor.
func (c *Config) MissingRuntimeConfig() []string {
	var missing []string
	if c.FMPAPIKey() == "" && !c.Database.Enabled {
		missing = append(missing, c.FMP.APIKeyEnv+" (or database.enabled)")
	}
	if c.LLM.Provider == "azure" {
		if c.LLMEndpoint() == "" {
			missing = append(missing, c.LLM.EndpointEnv)
		}
		if c.LLMAPIKey() == "" {
			missing = append(missing, c.LLM.APIKeyEnv)
		}
	}
	return missing
}

// FMPAPIKey resolves the FMP key from the configured environment variable.
func (c *Config) FMPAPIKey() string {
	return os.Getenv(c.FMP.APIKeyEnv)
}

func (c *Config) LLMEndpoint() string {
	return os.Getenv(c.LLM.EndpointEnv)
}

func (c *Config) LLMAPIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

// DSN builds a postgres connection string for the read-only source database.
func (c *Config) DSN() string {
	sslmode := c.Database.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, sslmode)
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.MaxEvents == 0 {
		c.MaxEvents = 12
	}
	if len(c.Analysis.Horizons) == 0 {
		c.Analysis.Horizons = []int{5, 10, 30, 60}
	}
	if c.Analysis.MinRegimeHistory == 0 {
		c.Analysis.MinRegimeHistory = 4
	}
	if c.FMP.APIKeyEnv == "" {
		c.FMP.APIKeyEnv = "FMP_API_KEY"
	}
	if c.FMP.RequestsPerSecond == 0 {
		c.FMP.RequestsPerSecond = 4
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "azure"
	}
	if c.LLM.EndpointEnv == "" {
		c.LLM.EndpointEnv = "AZURE_OPENAI_ENDPOINT"
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "AZURE_OPENAI_API_KEY"
	}
	if c.LLM.APIVersion == "" {
		c.LLM.APIVersion = "2024-02-15-preview"
	}
	if c.LLM.Deployment == "" {
		c.LLM.Deployment = "gpt-4o"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 800
	}
	if c.LLM.Concurrency == 0 {
		c.LLM.Concurrency = 10
	}
	if c.LLM.MaxChars == 0 {
		c.LLM.MaxChars = 48000
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
