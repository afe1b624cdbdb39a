package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqchain/packages/core/config"
	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a new reqchain project",
	Long: `Initialize a new reqchain project in the given directory (default: the
current directory).

This creates:
  - .reqchain.json - Tool configuration (client settings, default headers)
  - api.yaml       - Example schema with environments, requests and a sequence

Examples:
  reqchain init
  reqchain init ./api --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleSchema = `project:
  name: example
  version: "0.1.0"
  description: Example reqchain project
  default_env: dev

env:
  base_url:
    default: http://localhost:3000
    staging: https://staging.api.example.com
    prod: https://api.example.com
  username:
    default: demo

requests:
  health:
    method: GET
    url: "{{base_url}}/health"
    doc: Check that the API is up

  login:
    method: POST
    url: "{{base_url}}/login"
    doc: Log in and keep the token for later requests
    body:
      type: json
      content:
        username: "{{username}}"
        password: "{{$API_PASSWORD}}"
    script:
      post_request:
        language: rhai
        content: |
          status == 200 || fail("login failed")
          token = body("token")

  get_profile:
    method: GET
    url: "{{base_url}}/profile"
    config:
      depends_on: [login]
    headers:
      Authorization: "Bearer {{token}}"

  create_resource:
    method: POST
    url: "{{base_url}}/resources"
    config:
      depends_on: [login]
    headers:
      Authorization: "Bearer {{token}}"
      X-Request-Id: "{{uuid()}}"
    body:
      type: json
      content:
        name: Test Resource
        owner: "{{username}}"

calls:
  smoke: [health, get_profile, create_resource]
`

func initCommand(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	configFile := filepath.Join(dir, ".reqchain.json")
	exampleFile := filepath.Join(dir, "api.yaml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return &usageError{msg: fmt.Sprintf("file already exists: %s (use --force to overwrite)", f)}
			}
		}
	}

	if _, err := schema.Parse([]byte(exampleSchema), exampleFile); err != nil {
		return fmt.Errorf("example schema: %w", err)
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{
		"User-Agent": "reqchain/" + version,
	}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleSchema), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nreqchain project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'reqchain run %s --sequence smoke' to execute the example.\n", exampleFile)

	return nil
}
