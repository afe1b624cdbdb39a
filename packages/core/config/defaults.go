package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		DefaultEnvironment: "",
		Timeout:            30000, // 30 seconds
		FollowRedirects:    BoolPtr(true),
		MaxRedirects:       10,
		ValidateSSL:        BoolPtr(true),
		RestrictFiles:      BoolPtr(false),
		Proxy:              "",
		Headers:            nil,
		Output:             "console",
		Rate:               0,
		EnvFile:            "",
		Verbose:            BoolPtr(false),
		NoColor:            BoolPtr(false),
	}
}
