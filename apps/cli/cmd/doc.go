// Package cmd implements the reqchain CLI commands using Cobra.
//
// Available commands:
//   - run: Execute requests (with their dependencies) or a call sequence
//   - queue: Print the call queue without executing it
//   - list: Display requests, sequences and variables of a schema
//   - validate: Check schema files without executing them
//   - env: Print the resolved environment as YAML
//   - init: Create a new reqchain project with an example schema
//   - version: Show reqchain version information
//
// Flags default from REQCHAIN_* environment variables, and client settings
// come from a .reqchain.json or reqchain.yaml config file.
package cmd
