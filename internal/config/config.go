// Package config loads the command line configuration.
//
// Values are layered, highest priority first: flags, TERMINOLOGIES_*
// environment variables, the YAML config file, defaults.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/gofhir/terminologies"
	"github.com/gofhir/terminologies/dictionaries"
	"github.com/gofhir/terminologies/pkg/logger"
	"github.com/gofhir/terminologies/terminology"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "TERMINOLOGIES_"

// Default configuration values.
const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "console"
	DefaultOutput    = "table"
)

// configFileNames are looked up in the working directory when no config file
// is given explicitly.
var configFileNames = []string{"terminologies.yaml", "terminologies.yml", ".terminologies.yaml"}

// Config holds all CLI configuration options.
type Config struct {
	UserContextsPath string `koanf:"user_contexts_path"`
	NoDefaults       bool   `koanf:"no_defaults"`

	// Context used by commands when --terminology / --anatomic are not given
	Terminology     string `koanf:"terminology"`
	AnatomicContext string `koanf:"anatomic"`

	PreferredTerminologies    []string `koanf:"preferred_terminologies"`
	PreferredAnatomicContexts []string `koanf:"preferred_anatomic_contexts"`

	SearchCacheSize int `koanf:"search_cache_size"`
	Concurrency     int `koanf:"concurrency"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
	Output    string `koanf:"output"`

	// FileUsed is the config file that was read, if any.
	FileUsed string `koanf:"-"`
}

// findConfigFile returns the config file to read.
// Priority: explicit path > terminologies.yaml > terminologies.yml > .terminologies.yaml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Only flags that were explicitly set override other sources.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"terminology":       dictionaries.GeneralAnatomyName,
		"anatomic":          dictionaries.AnatomicMasterName,
		"search_cache_size": terminology.DefaultSearchCacheSize,
		"log_level":         DefaultLogLevel,
		"log_format":        DefaultLogFormat,
		"output":            DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	fileUsed := findConfigFile(cfgFile)
	if fileUsed != "" {
		if err := k.Load(file.Provider(fileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", fileUsed, err)
		}
	}

	// 3. Environment: TERMINOLOGIES_USER_CONTEXTS_PATH -> user_contexts_path
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "user_contexts" {
				key = "user_contexts_path"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = fileUsed
	cfg.UserContextsPath = expandHome(cfg.UserContextsPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("invalid log_level %q (want debug, info, warn, error or none)", c.LogLevel)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format %q (want console or json)", c.LogFormat)
	}
	switch c.Output {
	case "table", "json":
	default:
		return fmt.Errorf("invalid output %q (want table or json)", c.Output)
	}
	if c.SearchCacheSize < 0 {
		return fmt.Errorf("search_cache_size must not be negative, got %d", c.SearchCacheSize)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	return nil
}

// NewLogger creates the logger described by the configuration.
func (c *Config) NewLogger(w io.Writer) *logger.Logger {
	level, _ := logger.ParseLevel(c.LogLevel)
	if c.LogFormat == "json" {
		return logger.New(w, level)
	}
	return logger.NewConsole(w, level)
}

// LogicOptions converts the configuration to options for terminologies.New.
func (c *Config) LogicOptions(log *logger.Logger) []terminologies.Option {
	opts := []terminologies.Option{
		terminologies.WithDefaults(!c.NoDefaults),
		terminologies.WithUserContextsPath(c.UserContextsPath),
		terminologies.WithSearchCacheSize(c.SearchCacheSize),
		terminologies.WithPreferredTerminologies(c.PreferredTerminologies...),
		terminologies.WithPreferredAnatomicContexts(c.PreferredAnatomicContexts...),
		terminologies.WithLogger(log),
	}
	if c.Concurrency > 0 {
		opts = append(opts, terminologies.WithLoadConcurrency(c.Concurrency))
	}
	return opts
}
