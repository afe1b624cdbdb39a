package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/reqchain/packages/core/config"
	"github.com/abdul-hamid-achik/reqchain/packages/core/env"
	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
	"github.com/abdul-hamid-achik/reqchain/packages/http"
)

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// warn prints a yellow warning line to stderr.
func warn(format string, args ...any) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s "+format+"\n", append([]any{yellow("warning:")}, args...)...)
}

// loadConfig reads the config file named by --config, or the first one
// found in the working directory, and layers the global flags over it.
func loadConfig() (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, &configError{err: err}
	}

	flags := &config.Config{}
	if verboseFlag {
		flags.Verbose = config.BoolPtr(true)
	}
	if noColorFlag {
		flags.NoColor = config.BoolPtr(true)
	}
	cfg := fileConfig.Merge(flags)

	if cfg.GetNoColor() {
		color.NoColor = true
	}
	return cfg, nil
}

// newClient builds the transport client from the merged configuration.
func newClient(cfg *config.Config) *http.Client {
	opts := []http.ClientOption{
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithDefaultHeaders(cfg.Headers),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, http.WithTimeout(cfg.TimeoutDuration()))
	}
	if cfg.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		opts = append(opts, http.WithProxy(cfg.Proxy))
	}
	return http.NewClient(opts...)
}

// parseOverrides turns name=value pairs into variable overrides. Values
// are decoded as YAML scalars so numbers and booleans keep their type.
func parseOverrides(pairs []string) (env.Overrides, error) {
	overrides := env.Overrides{}
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q (want name=value)", pair)
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		overrides[name] = schema.Normalize(value)
	}
	return overrides, nil
}
