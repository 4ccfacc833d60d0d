package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the rerankd API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Scoring ScoringConfig `yaml:"scoring"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ScoringConfig holds scoring provider settings.
type ScoringConfig struct {
	Provider string       `yaml:"provider"` // hugot, openai (default: hugot)
	Hugot    HugotConfig  `yaml:"hugot"`
	OpenAI   OpenAIConfig `yaml:"openai"`
}

// HugotConfig holds local cross-encoder settings.
type HugotConfig struct {
	// ModelPath points at a local ONNX model directory. When the path does not
	// exist and ModelRepo is set, the model is downloaded from the hub.
	ModelPath    string `yaml:"model_path"`
	ModelRepo    string `yaml:"model_repo"`
	OnnxFilePath string `yaml:"onnx_file_path"`
	// PairTemplate renders a query/document pair into a single model input.
	PairTemplate string `yaml:"pair_template"`
}

// OpenAIConfig holds the OpenAI-compatible embedding scorer settings.
type OpenAIConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Scoring.Provider == "" {
		c.Scoring.Provider = "hugot"
	}
	if c.Scoring.Hugot.ModelPath == "" {
		c.Scoring.Hugot.ModelPath = "./models"
	}
	if c.Scoring.Hugot.OnnxFilePath == "" {
		c.Scoring.Hugot.OnnxFilePath = "onnx/model.onnx"
	}
	if c.Scoring.Hugot.PairTemplate == "" {
		c.Scoring.Hugot.PairTemplate = "{query} [SEP] {document}"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Scoring.Provider {
	case "hugot":
		if c.Scoring.Hugot.ModelPath == "" && c.Scoring.Hugot.ModelRepo == "" {
			return fmt.Errorf("scoring.hugot requires model_path or model_repo")
		}
		if !strings.Contains(c.Scoring.Hugot.PairTemplate, "{query}") ||
			!strings.Contains(c.Scoring.Hugot.PairTemplate, "{document}") {
			return fmt.Errorf(
				"scoring.hugot.pair_template must contain {query} and {document}, got %q",
				c.Scoring.Hugot.PairTemplate,
			)
		}
	case "openai":
		if c.Scoring.OpenAI.Model == "" {
			return fmt.Errorf("scoring.openai.model is required")
		}
	default:
		return fmt.Errorf("scoring.provider must be \"hugot\" or \"openai\", got %q", c.Scoring.Provider)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
