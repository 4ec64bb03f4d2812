package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable the configuration reads
const EnvPrefix = "CHART_INTENT_"

// MaxChartColumns is the most columns a chart may use
const MaxChartColumns = 3

// envOnlyTag names a struct tag no field carries, so parsing with it as the
// default-value tag sets only the variables that are actually present
const envOnlyTag = "envOnly"

// Config represents the application configuration
type Config struct {
	LLM       LLMConfig       `json:"llm"`
	Inference InferenceConfig `json:"inference"`
	Database  DatabaseConfig  `json:"database"`
	Render    RenderConfig    `json:"render"`
	Cache     CacheConfig     `json:"cache"`
	Logging   LoggingConfig   `json:"logging"`
	Debug     DebugConfig     `json:"debug"`
}

// LLMConfig configures the optional analysis provider
type LLMConfig struct {
	Enabled       bool    `json:"enabled"        env:"LLM_ENABLED"        envDefault:"true"`
	Provider      string  `json:"provider"       env:"LLM_PROVIDER"       envDefault:"openai"` // openai, anthropic, ollama, local
	Model         string  `json:"model"          env:"LLM_MODEL"          envDefault:"gpt-4o-mini"`
	APIKey        string  `json:"api_key"        env:"LLM_API_KEY"`
	BaseURL       string  `json:"base_url"       env:"LLM_BASE_URL"`
	Temperature   float64 `json:"temperature"    env:"LLM_TEMPERATURE"    envDefault:"0.7"`
	MaxTokens     int     `json:"max_tokens"     env:"LLM_MAX_TOKENS"     envDefault:"2000"`
	Timeout       string  `json:"timeout"        env:"LLM_TIMEOUT"        envDefault:"30s"`
	RetryAttempts int     `json:"retry_attempts" env:"LLM_RETRY_ATTEMPTS" envDefault:"0"`
}

// InferenceConfig configures the chart inference cascade
type InferenceConfig struct {
	MaxColumns  int    `json:"max_columns"  env:"MAX_COLUMNS"  envDefault:"3"`
	LexiconFile string `json:"lexicon_file" env:"LEXICON_FILE"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Path           string `json:"path"            env:"DB_PATH"            envDefault:"~/.config/chart-intent/history.db"`
	MaxConnections int    `json:"max_connections" env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	QueryTimeout   string `json:"query_timeout"   env:"DB_QUERY_TIMEOUT"   envDefault:"30s"`
	SampleRows     int    `json:"sample_rows"     env:"DB_SAMPLE_ROWS"     envDefault:"10000"`
}

// RenderConfig carries presentation hints passed to the renderer
type RenderConfig struct {
	Width  int `json:"width"  env:"CHART_WIDTH"  envDefault:"800"`
	Height int `json:"height" env:"CHART_HEIGHT" envDefault:"600"`
}

// CacheConfig represents caching configuration
type CacheConfig struct {
	Enabled     bool   `json:"enabled"           env:"CACHE_ENABLED"     envDefault:"true"`
	Directory   string `json:"directory"         env:"CACHE_DIR"         envDefault:"~/.cache/chart-intent"`
	MaxSizeMB   int    `json:"max_size_mb"       env:"CACHE_MAX_SIZE_MB" envDefault:"100"`
	TTLHours    int    `json:"ttl_hours"         env:"CACHE_TTL_HOURS"   envDefault:"24"`
	CleanupFreq string `json:"cleanup_frequency" env:"CACHE_CLEANUP_FREQ" envDefault:"1h"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level     string `json:"level"      env:"LOG_LEVEL"      envDefault:"info"`                                 // debug, info, warn, error
	Format    string `json:"format"     env:"LOG_FORMAT"     envDefault:"text"`                                 // text, json
	Output    string `json:"output"     env:"LOG_OUTPUT"     envDefault:"stderr"`                               // stdout, stderr, file
	File      string `json:"file"       env:"LOG_FILE"       envDefault:"~/.config/chart-intent/logs/app.log"` // log file path when output is file
	AddSource bool   `json:"add_source" env:"LOG_ADD_SOURCE" envDefault:"false"`
}

// DebugConfig represents debug configuration
type DebugConfig struct {
	Enabled bool `json:"enabled" env:"DEBUG"   envDefault:"false"`
	Verbose bool `json:"verbose" env:"VERBOSE" envDefault:"false"`
}

// DefaultConfig returns the configuration built purely from field defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	_ = env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: map[string]string{},
	})

	return cfg
}

// LoadConfig loads configuration from file, environment variables, and command-line flags
func LoadConfig() (*Config, error) {
	return LoadConfigWithOverrides(nil)
}

// LoadConfigWithOverrides loads configuration with optional command-line flag overrides.
// Later layers win: field defaults, the JSON config file, the environment
// (including .env), then flags.
func LoadConfigWithOverrides(flagOverrides map[string]interface{}) (*Config, error) {
	config := DefaultConfig()

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(config, env.Options{
		Prefix:              EnvPrefix,
		DefaultValueTagName: envOnlyTag,
	}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if flagOverrides != nil {
		if err := applyFlagOverrides(config, flagOverrides); err != nil {
			return nil, fmt.Errorf("failed to apply flag overrides: %w", err)
		}
	}

	config.ExpandAllPaths()

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadDotEnv exports variables from a dotenv file without overriding the real environment
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	return nil
}

// loadConfigFromFile overlays the keys present in a JSON file onto config.
// Keys absent from the file, including false booleans, keep their current value.
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	merged := *config
	if err := json.Unmarshal(data, &merged); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	*config = merged

	return nil
}

// applyFlagOverrides applies command-line flag overrides to configuration
func applyFlagOverrides(config *Config, overrides map[string]interface{}) error {
	for key, value := range overrides {
		switch key {
		case "db-path":
			if str, ok := value.(string); ok && str != "" {
				config.Database.Path = str
			}
		case "log-level":
			if str, ok := value.(string); ok && str != "" {
				config.Logging.Level = str
			}
		case "lexicon":
			if str, ok := value.(string); ok && str != "" {
				config.Inference.LexiconFile = str
			}
		case "provider":
			if str, ok := value.(string); ok && str != "" {
				config.LLM.Provider = str
			}
		case "model":
			if str, ok := value.(string); ok && str != "" {
				config.LLM.Model = str
			}
		case "no-llm":
			if b, ok := value.(bool); ok && b {
				config.LLM.Enabled = false
			}
		case "verbose":
			if b, ok := value.(bool); ok {
				config.Debug.Verbose = b
			}
		case "debug":
			if b, ok := value.(bool); ok {
				config.Debug.Enabled = b
			}
		default:
			return fmt.Errorf("unknown flag override: %s", key)
		}
	}

	return nil
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	validLogOutputs := map[string]bool{
		"stdout": true, "stderr": true, "file": true,
	}
	if !validLogOutputs[strings.ToLower(config.Logging.Output)] {
		return fmt.Errorf(
			"invalid log output: %s (must be stdout, stderr, or file)",
			config.Logging.Output,
		)
	}

	validProviders := map[string]bool{
		"openai": true, "anthropic": true, "ollama": true, "local": true,
	}
	if !validProviders[strings.ToLower(config.LLM.Provider)] {
		return fmt.Errorf(
			"invalid llm provider: %s (must be openai, anthropic, ollama, or local)",
			config.LLM.Provider,
		)
	}

	for name, value := range map[string]string{
		"llm timeout":             config.LLM.Timeout,
		"database query timeout":  config.Database.QueryTimeout,
		"cache cleanup frequency": config.Cache.CleanupFreq,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %s", name, value)
		}
	}

	if config.Inference.MaxColumns <= 0 || config.Inference.MaxColumns > MaxChartColumns {
		return fmt.Errorf("inference max columns must be between 1 and %d: %d",
			MaxChartColumns, config.Inference.MaxColumns)
	}

	if config.Database.MaxConnections <= 0 {
		return fmt.Errorf(
			"database max connections must be positive: %d",
			config.Database.MaxConnections,
		)
	}

	if config.LLM.Temperature < 0 || config.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature out of range [0, 2]: %g", config.LLM.Temperature)
	}

	return nil
}

// LLMTimeout returns the parsed provider timeout
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 30 * time.Second
	}

	return d
}

// SaveConfig writes config to the config file and returns its path. The API
// key is left out; it belongs in the environment.
func SaveConfig(config *Config) (string, error) {
	configPath := getConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	saved := *config
	saved.LLM.APIKey = ""

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() string {
	if configPath := os.Getenv(EnvPrefix + "CONFIG"); configPath != "" {
		return ExpandPath(configPath)
	}

	return filepath.Join(GetConfigDir(), "config.json")
}

// ExpandPath expands ~ to home directory in file paths
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ExpandAllPaths expands all paths in the configuration
func (c *Config) ExpandAllPaths() {
	c.Database.Path = ExpandPath(c.Database.Path)
	c.Cache.Directory = ExpandPath(c.Cache.Directory)
	c.Logging.File = ExpandPath(c.Logging.File)
	c.Inference.LexiconFile = ExpandPath(c.Inference.LexiconFile)
}

// GetConfigDir returns the configuration directory
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".config/chart-intent"
	}

	return filepath.Join(homeDir, ".config", "chart-intent")
}

// EnsureDirectories creates the parent directories of the database, cache and log file
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Database.Path),
		c.Cache.Directory,
	}
	if c.Logging.Output == "file" {
		dirs = append(dirs, filepath.Dir(c.Logging.File))
	}

	for _, dir := range dirs {
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}
