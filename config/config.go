package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var conf = mustLoad()

type Config struct {
	Server struct {
		Port        string `envconfig:"PORT" default:"8080" yaml:"port"`
		AdminAPIKey string `envconfig:"ADMIN_API_KEY" default:"" yaml:"adminApiKey"`
		// Per-IP limits for the admin HTTP surface (token bucket)
		AdminRateLimitPerSecond int `envconfig:"ADMIN_RATE_LIMIT_PER_SECOND" default:"5" yaml:"adminRateLimitPerSecond"`
		AdminRateLimitBurst     int `envconfig:"ADMIN_RATE_LIMIT_BURST" default:"10" yaml:"adminRateLimitBurst"`
	} `yaml:"server"`

	Cache struct {
		Dir          string `envconfig:"CACHE_DIR" default:".cache" yaml:"dir"`
		TTLInSeconds int    `envconfig:"CACHE_TTL" default:"3600" yaml:"ttlInSeconds"`
	} `yaml:"cache"`

	RateLimit struct {
		Requests        int `envconfig:"RATE_LIMIT_REQUESTS" default:"100" yaml:"requests"`
		WindowInSeconds int `envconfig:"RATE_LIMIT_WINDOW" default:"3600" yaml:"windowInSeconds"`
	} `yaml:"rateLimit"`

	Resilience struct {
		CircuitBreakerThreshold int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5" yaml:"circuitBreakerThreshold"`
		// Also used as the default circuit breaker recovery timeout
		HealthCheckIntervalInSeconds int `envconfig:"HEALTH_CHECK_INTERVAL" default:"300" yaml:"healthCheckIntervalInSeconds"`
		MaxRetries                   int `envconfig:"MAX_RETRIES" default:"3" yaml:"maxRetries"`
	} `yaml:"resilience"`

	TextGen struct {
		APIKey  string `envconfig:"TEXTGEN_API_KEY" default:"" yaml:"apiKey"`
		BaseURL string `envconfig:"TEXTGEN_BASE_URL" default:"" yaml:"baseUrl"`
	} `yaml:"textGen"`

	ImageGen struct {
		APIKey    string `envconfig:"IMAGEGEN_API_KEY" default:"" yaml:"apiKey"`
		BaseURL   string `envconfig:"IMAGEGEN_BASE_URL" default:"" yaml:"baseUrl"`
		BatchSize int    `envconfig:"IMAGEGEN_BATCH_SIZE" default:"25" yaml:"batchSize"`
	} `yaml:"imageGen"`
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}

// LoadFile merges a YAML config file over the environment-derived config.
// Used by the CLI --config flag; fields absent from the file keep their
// environment values.
func LoadFile(path string) (Config, error) {
	cfg := conf

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ConfigurationError reports required settings that are missing. Fatal at
// startup for collaborators; never retried.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + strings.Join(e.Missing, ", ")
}

// Validate checks that the settings required by the generation collaborators
// are present. The resilience core itself has no required settings.
func (c Config) Validate() error {
	var missing []string

	if c.TextGen.APIKey == "" {
		missing = append(missing, "TEXTGEN_API_KEY")
	}
	if c.TextGen.BaseURL == "" {
		missing = append(missing, "TEXTGEN_BASE_URL")
	}
	if c.ImageGen.APIKey == "" {
		missing = append(missing, "IMAGEGEN_API_KEY")
	}
	if c.ImageGen.BaseURL == "" {
		missing = append(missing, "IMAGEGEN_BASE_URL")
	}

	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}
