package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Get()

	if cfg.Cache.Dir != ".cache" {
		t.Errorf("Expected default cache dir .cache, got %q", cfg.Cache.Dir)
	}
	if cfg.Cache.TTLInSeconds != 3600 {
		t.Errorf("Expected default TTL 3600, got %d", cfg.Cache.TTLInSeconds)
	}
	if cfg.RateLimit.Requests != 100 {
		t.Errorf("Expected default rate limit 100, got %d", cfg.RateLimit.Requests)
	}
	if cfg.RateLimit.WindowInSeconds != 3600 {
		t.Errorf("Expected default window 3600, got %d", cfg.RateLimit.WindowInSeconds)
	}
	if cfg.Resilience.CircuitBreakerThreshold != 5 {
		t.Errorf("Expected default breaker threshold 5, got %d", cfg.Resilience.CircuitBreakerThreshold)
	}
	if cfg.Resilience.MaxRetries != 3 {
		t.Errorf("Expected default max retries 3, got %d", cfg.Resilience.MaxRetries)
	}
	if cfg.ImageGen.BatchSize != 25 {
		t.Errorf("Expected default image batch size 25, got %d", cfg.ImageGen.BatchSize)
	}
}

func TestValidate_MissingKeys(t *testing.T) {
	cfg := Config{}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected an empty config to fail validation")
	}

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigurationError, got %T", err)
	}
	if len(cfgErr.Missing) != 4 {
		t.Errorf("Expected 4 missing settings, got %v", cfgErr.Missing)
	}
}

func TestValidate_Complete(t *testing.T) {
	cfg := Config{}
	cfg.TextGen.APIKey = "k1"
	cfg.TextGen.BaseURL = "https://text.example.com"
	cfg.ImageGen.APIKey = "k2"
	cfg.ImageGen.BaseURL = "https://image.example.com"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected a complete config to validate, got %v", err)
	}
}

func TestLoadFile_MergesOverEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
cache:
  ttlInSeconds: 120
rateLimit:
  requests: 10
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Expected the file to load, got %v", err)
	}

	if cfg.Cache.TTLInSeconds != 120 {
		t.Errorf("Expected TTL from the file, got %d", cfg.Cache.TTLInSeconds)
	}
	if cfg.RateLimit.Requests != 10 {
		t.Errorf("Expected rate limit from the file, got %d", cfg.RateLimit.Requests)
	}
	// Fields absent from the file keep their environment values
	if cfg.Cache.Dir != Get().Cache.Dir {
		t.Errorf("Expected cache dir to be preserved, got %q", cfg.Cache.Dir)
	}
	if cfg.Resilience.MaxRetries != Get().Resilience.MaxRetries {
		t.Errorf("Expected max retries to be preserved, got %d", cfg.Resilience.MaxRetries)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestLoadFile_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cache: [not a mapping"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("Expected an error for malformed YAML")
	}
}

func TestConfigurationError_Message(t *testing.T) {
	err := &ConfigurationError{Missing: []string{"TEXTGEN_API_KEY", "IMAGEGEN_API_KEY"}}
	want := "missing required configuration: TEXTGEN_API_KEY, IMAGEGEN_API_KEY"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
