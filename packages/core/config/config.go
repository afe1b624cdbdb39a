package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the reqchain configuration
type Config struct {
	DefaultEnvironment string            `json:"defaultEnvironment,omitempty" mapstructure:"defaultEnvironment"`
	Timeout            int               `json:"timeout,omitempty" mapstructure:"timeout"` // milliseconds
	FollowRedirects    *bool             `json:"followRedirects,omitempty" mapstructure:"followRedirects"`
	MaxRedirects       int               `json:"maxRedirects,omitempty" mapstructure:"maxRedirects"`
	ValidateSSL        *bool             `json:"validateSSL,omitempty" mapstructure:"validateSSL"`
	RestrictFiles      *bool             `json:"restrictFiles,omitempty" mapstructure:"restrictFiles"`
	Proxy              string            `json:"proxy,omitempty" mapstructure:"proxy"`
	Headers            map[string]string `json:"headers,omitempty" mapstructure:"headers"` // Default headers for all requests
	Output             string            `json:"output,omitempty" mapstructure:"output"`   // console or json
	Rate               float64           `json:"rate,omitempty" mapstructure:"rate"`       // calls per second, 0 for unlimited
	EnvFile            string            `json:"envFile,omitempty" mapstructure:"envFile"`
	Verbose            *bool             `json:"verbose,omitempty" mapstructure:"verbose"`
	NoColor            *bool             `json:"noColor,omitempty" mapstructure:"noColor"`
}

// EnvPrefix prefixes environment variables read into the configuration,
// for example REQCHAIN_TIMEOUT.
const EnvPrefix = "REQCHAIN"

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetRestrictFiles returns the multipart path restriction, defaulting to false
func (c *Config) GetRestrictFiles() bool {
	return getBool(c.RestrictFiles, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration returns the client timeout.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".reqchain.json",
	"reqchain.json",
	".reqchain.yaml",
	"reqchain.yaml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Defaults plus environment variables when no config file exists
	return decode(newViper())
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("defaultEnvironment", d.DefaultEnvironment)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("followRedirects", *d.FollowRedirects)
	v.SetDefault("maxRedirects", d.MaxRedirects)
	v.SetDefault("validateSSL", *d.ValidateSSL)
	v.SetDefault("restrictFiles", *d.RestrictFiles)
	v.SetDefault("proxy", d.Proxy)
	v.SetDefault("output", d.Output)
	v.SetDefault("rate", d.Rate)
	v.SetDefault("envFile", d.EnvFile)
	v.SetDefault("verbose", *d.Verbose)
	v.SetDefault("noColor", *d.NoColor)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.DefaultEnvironment != "" {
		result.DefaultEnvironment = other.DefaultEnvironment
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.RestrictFiles != nil {
		result.RestrictFiles = other.RestrictFiles
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
