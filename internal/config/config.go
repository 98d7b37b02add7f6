package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/datascrub-cli/internal/ai"
	"github.com/KaramelBytes/datascrub-cli/internal/profile"
)

// EnvPrefix prefixes environment overrides, e.g. DATASCRUB_DEFAULT_MODEL.
const EnvPrefix = "DATASCRUB"

const dirName = ".datascrub"

// Global configuration structure.
type Global struct {
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model" validate:"required"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider" validate:"omitempty,provider"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	ProjectsDir     string  `mapstructure:"projects_dir" yaml:"projects_dir"`
	// ModelsFile is an optional YAML/JSON catalog merged over the built-in one.
	ModelsFile string `mapstructure:"models_file" yaml:"models_file,omitempty"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"gte=0"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts" validate:"gte=0,lte=10"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms" validate:"gte=0"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms" validate:"gte=0"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host" validate:"omitempty,url"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec" validate:"gte=0"`

	// Profiling
	OutlierSensitivity string `mapstructure:"outlier_sensitivity" yaml:"outlier_sensitivity" validate:"omitempty,oneof=low medium high"`
	Parallelism        int    `mapstructure:"parallelism" yaml:"parallelism" validate:"gte=0"`
	PlanMaxColumns     int    `mapstructure:"plan_max_columns" yaml:"plan_max_columns" validate:"gte=0"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"omitempty,oneof=text json"`
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"api_key", "default_model", "default_provider", "max_tokens", "temperature",
	"projects_dir", "models_file", "http_timeout_sec", "retry_max_attempts",
	"retry_base_delay_ms", "retry_max_delay_ms", "ollama_host", "ollama_timeout_sec",
	"outlier_sensitivity", "parallelism", "plan_max_columns", "log_level", "log_format",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		_, ok := ai.GetRuntime(fl.Field().String(), ai.RuntimeConfig{})
		return ok
	})
	// Report yaml key names in errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks value ranges and enumerations.
func (c *Global) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Settings converts the profiling keys into profile.Settings.
func (c *Global) Settings() profile.Settings {
	s := profile.DefaultSettings()
	if c == nil {
		return s
	}
	if sens, err := profile.ParseSensitivity(c.OutlierSensitivity); err == nil {
		s.OutlierSensitivity = sens
	}
	s.Parallelism = c.Parallelism
	return s
}

// Set assigns a key from its string form. Provider and sensitivity values
// are canonicalized. The result is validated before it is kept.
func (c *Global) Set(key, val string) error {
	next := *c
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %w", key, err)
		}
		return i, nil
	}
	var err error
	switch key {
	case "api_key":
		next.APIKey = val
	case "default_model":
		next.DefaultModel = val
	case "default_provider":
		next.DefaultProvider = ai.CanonicalProvider(val)
	case "max_tokens":
		next.MaxTokens, err = atoi()
	case "temperature":
		next.Temperature, err = strconv.ParseFloat(val, 64)
		if err != nil {
			err = fmt.Errorf("invalid float for temperature: %w", err)
		}
	case "projects_dir":
		next.ProjectsDir = val
	case "models_file":
		next.ModelsFile = val
	case "http_timeout_sec":
		next.HTTPTimeoutSec, err = atoi()
	case "retry_max_attempts":
		next.RetryMaxAttempts, err = atoi()
	case "retry_base_delay_ms":
		next.RetryBaseDelayMs, err = atoi()
	case "retry_max_delay_ms":
		next.RetryMaxDelayMs, err = atoi()
	case "ollama_host":
		next.OllamaHost = val
	case "ollama_timeout_sec":
		next.OllamaTimeoutSec, err = atoi()
	case "outlier_sensitivity":
		var s profile.Sensitivity
		s, err = profile.ParseSensitivity(val)
		next.OutlierSensitivity = string(s)
	case "parallelism":
		next.Parallelism, err = atoi()
	case "plan_max_columns":
		next.PlanMaxColumns, err = atoi()
	case "log_level":
		next.LogLevel = strings.ToLower(val)
	case "log_format":
		next.LogFormat = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(Keys, ", "))
	}
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Dir returns ~/.datascrub.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datascrub/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("api_key", "")
	v.SetDefault("default_model", ai.DefaultModel)
	v.SetDefault("default_provider", ai.ProviderOpenRouter)
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("temperature", 0.2)
	v.SetDefault("projects_dir", "")
	v.SetDefault("models_file", "")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// Ollama defaults
	v.SetDefault("ollama_host", ai.DefaultOllamaHost)
	v.SetDefault("ollama_timeout_sec", 120)
	// Profiling defaults
	v.SetDefault("outlier_sensitivity", string(profile.SensitivityMedium))
	v.SetDefault("parallelism", 0)
	v.SetDefault("plan_max_columns", 15)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ProjectsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.ProjectsDir = filepath.Join(dir, "projects")
	}
	c.DefaultProvider = ai.CanonicalProvider(c.DefaultProvider)
	c.OutlierSensitivity = strings.ToLower(c.OutlierSensitivity)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
