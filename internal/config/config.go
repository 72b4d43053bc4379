// ABOUTME: Runtime configuration assembled from flags, environment, .env files and an optional config file.
// ABOUTME: Environment keys use the PARTNERGEN_ prefix; provider API keys fall back to their usual names.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/2389/partnergen/internal/contact"
)

// EnvPrefix prefixes every environment override, e.g. PARTNERGEN_PER_TYPE.
const EnvPrefix = "PARTNERGEN"

// Providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Default values.
const (
	DefaultOut         = "out"
	DefaultModel       = "gpt-4o"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultProvider    = ProviderOpenAI
	DefaultPerType     = 100
	DefaultDelay       = 600 * time.Millisecond
	DefaultMaxAttempts = 4
	DefaultOverRequest = 2
	DefaultTemperature = 0.2
	DefaultMergeOutput = "merged_contacts.csv"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	DefaultMockPort    = 9090
)

// Config holds every tunable of a run.
type Config struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	CitiesFile  string        `mapstructure:"cities"`
	Out         string        `mapstructure:"out"`
	PerType     int           `mapstructure:"per_type"`
	Delay       time.Duration `mapstructure:"delay"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	OverRequest int           `mapstructure:"over_request"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Types       []string      `mapstructure:"types"`
	Merge       bool          `mapstructure:"merge"`
	MergeOutput string        `mapstructure:"merge_output"`
	History     string        `mapstructure:"history"`
	MetricsFile string        `mapstructure:"metrics_file"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
	MockPort    int           `mapstructure:"mock_port"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("provider", DefaultProvider)
	v.SetDefault("out", DefaultOut)
	v.SetDefault("per_type", DefaultPerType)
	v.SetDefault("delay", DefaultDelay)
	v.SetDefault("max_attempts", DefaultMaxAttempts)
	v.SetDefault("over_request", DefaultOverRequest)
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("merge_output", DefaultMergeOutput)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("mock_port", DefaultMockPort)
}

// Load reads configuration into a Config. Flags must already be bound to v.
// configFile, when set, must exist.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	LoadDotEnv()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// Plain numbers are seconds, as in "--delay 0.6".
	if secs, err := strconv.ParseFloat(strings.TrimSpace(v.GetString("delay")), 64); err == nil {
		v.Set("delay", time.Duration(secs*float64(time.Second)))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Model == "" {
		cfg.Model = defaultModel(cfg.Provider)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = providerAPIKey(cfg.Provider)
	}

	return &cfg, nil
}

func defaultModel(provider string) string {
	if provider == ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultModel
}

func providerAPIKey(provider string) string {
	var names []string
	switch provider {
	case ProviderGemini:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		names = []string{"OPENAI_API_KEY"}
	}
	for _, name := range names {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}

// LoadDotEnv loads .env from the working directory or its parents, then from
// the home directory. Existing environment variables are never overridden.
func LoadDotEnv() {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".env"))
	}
}

// PartnerTypes resolves the configured type filter. The result always follows
// the canonical order; an empty filter selects every type.
func (c *Config) PartnerTypes() ([]contact.PartnerType, error) {
	if len(c.Types) == 0 {
		return contact.PartnerTypes, nil
	}
	want := make(map[contact.PartnerType]bool)
	for _, raw := range c.Types {
		for _, s := range strings.Split(raw, ",") {
			if strings.TrimSpace(s) == "" {
				continue
			}
			t, err := contact.ParsePartnerType(s)
			if err != nil {
				return nil, err
			}
			want[t] = true
		}
	}
	var out []contact.PartnerType
	for _, t := range contact.PartnerTypes {
		if want[t] {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return contact.PartnerTypes, nil
	}
	return out, nil
}

// Validate checks the settings a generation run depends on.
func (c *Config) Validate() error {
	var errs []error
	if c.PerType < 1 {
		errs = append(errs, fmt.Errorf("per-type must be at least 1, got %d", c.PerType))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max-attempts must be at least 1, got %d", c.MaxAttempts))
	}
	if c.OverRequest < 1 {
		errs = append(errs, fmt.Errorf("over-request must be at least 1, got %d", c.OverRequest))
	}
	if c.Delay < 0 {
		errs = append(errs, fmt.Errorf("delay must not be negative, got %s", c.Delay))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.Out == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderOpenAI, ProviderGemini))
	}
	if c.APIKey == "" {
		errs = append(errs, fmt.Errorf("no API key for provider %q: set %s_API_KEY or the provider's usual variable", c.Provider, EnvPrefix))
	}
	if _, err := c.PartnerTypes(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
