package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/haytac/emoji-scrub/internal/logging"
	"github.com/haytac/emoji-scrub/internal/textenc"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. EMOJI_SCRUB_ROOT.
const EnvPrefix = "EMOJI_SCRUB"

// DefaultExcludeDirs are pruned from traversal unless configured otherwise.
var DefaultExcludeDirs = []string{".git"}

// ErrNoRoot is returned by Validate when no traversal root was given.
var ErrNoRoot = errors.New("root directory is not configured")

// AppConfig holds the application configuration.
type AppConfig struct {
	Root        string         `mapstructure:"root" yaml:"root"`
	ExcludeDirs []string       `mapstructure:"exclude_dirs" yaml:"exclude_dirs"`
	Encoding    string         `mapstructure:"encoding" yaml:"encoding"`
	DryRun      bool           `mapstructure:"dry_run" yaml:"dry_run"`
	JournalPath string         `mapstructure:"journal_path" yaml:"journal_path,omitempty"`
	MetricsFile string         `mapstructure:"metrics_file" yaml:"metrics_file,omitempty"`
	WriteRate   float64        `mapstructure:"write_rate" yaml:"write_rate"` // writes per second, 0 = unlimited
	Log         logging.Config `mapstructure:"log" yaml:"log"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches the default locations; a missing file there is not an error.
func LoadConfig(configPath string) (*AppConfig, error) {
	var cfg AppConfig
	v := viper.New()

	v.SetDefault("root", "")
	v.SetDefault("exclude_dirs", DefaultExcludeDirs)
	v.SetDefault("encoding", textenc.DefaultEncoding)
	v.SetDefault("dry_run", false)
	v.SetDefault("journal_path", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("write_rate", 0.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.console", true)
	v.SetDefault("log.time_format", "15:04:05")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.emoji-scrub")
		v.AddConfigPath("/etc/emoji-scrub/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings a clean run depends on.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return ErrNoRoot
	}
	if _, err := textenc.Lookup(c.Encoding); err != nil {
		return err
	}
	if c.WriteRate < 0 {
		return fmt.Errorf("write_rate must not be negative, got %v", c.WriteRate)
	}
	return nil
}
