// Package config handles configuration loading and management for reqchain.
//
// It provides functionality for:
//   - Loading .reqchain.json, reqchain.json, .reqchain.yaml or reqchain.yaml
//   - Default configuration values
//   - REQCHAIN_* environment variables overriding file values
//   - Layering command-line flags over file values with Merge
package config
