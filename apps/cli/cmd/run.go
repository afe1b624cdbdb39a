package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/reqchain/packages/core/config"
	"github.com/abdul-hamid-achik/reqchain/packages/core/env"
	"github.com/abdul-hamid-achik/reqchain/packages/core/runner"
	"github.com/abdul-hamid-achik/reqchain/packages/core/schema"
	"github.com/abdul-hamid-achik/reqchain/packages/output"
)

var runCmd = &cobra.Command{
	Use:   "run <file> [request...]",
	Short: "Run requests and their dependencies",
	Long: `Run named requests, or a call sequence, from a reqchain schema.

Every request's dependencies run first, in dependency order. Values written
by scripts carry over to later requests of the same run.

Examples:
  reqchain run api.yaml get_profile
  reqchain run api.yaml get_profile list_orders --env staging
  reqchain run api.yaml --sequence checkout --output json
  reqchain run api.yaml get_profile --set user_id=42 --rate 5
  reqchain run api.yaml --sequence smoke --wait-for "{{base_url}}/health" --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	envFlag            string
	envFileFlag        string
	sequenceFlag       string
	projectFlag        bool
	setFlag            []string
	outputFlag         string
	outputFileFlag     string
	rateFlag           float64
	timeoutFlag        string
	proxyFlag          string
	insecureFlag       bool
	restrictFilesFlag  bool
	watchFlag          bool
	waitForFlag        string
	waitForStatusFlag  int
	waitForTimeoutFlag string
)

func init() {
	runCmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("REQCHAIN_ENV", ""), "Environment to use (env: REQCHAIN_ENV)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("REQCHAIN_ENV_FILE", ""), "Path to .env file exported for {{$NAME}} references (env: REQCHAIN_ENV_FILE)")
	runCmd.Flags().StringVarP(&sequenceFlag, "sequence", "s", "", "Run a call sequence instead of single requests")
	runCmd.Flags().BoolVar(&projectFlag, "project", false, "Require the schema to declare a project")
	runCmd.Flags().StringArrayVar(&setFlag, "set", nil, "Override a variable (name=value, repeatable)")

	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("REQCHAIN_OUTPUT", ""), "Output format: console, json, junit, tap (env: REQCHAIN_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("REQCHAIN_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: REQCHAIN_OUTPUT_FILE)")

	runCmd.Flags().Float64Var(&rateFlag, "rate", getEnvFloat("REQCHAIN_RATE", 0), "Maximum calls per second, 0 for unlimited (env: REQCHAIN_RATE)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("REQCHAIN_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: REQCHAIN_TIMEOUT)")
	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("REQCHAIN_PROXY", ""), "Proxy URL for HTTP requests (env: REQCHAIN_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("REQCHAIN_INSECURE", false), "Disable SSL certificate validation (env: REQCHAIN_INSECURE)")
	runCmd.Flags().BoolVar(&restrictFilesFlag, "restrict-files", getEnvBool("REQCHAIN_RESTRICT_FILES", false), "Reject multipart files outside the schema directory (env: REQCHAIN_RESTRICT_FILES)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch schema files for changes and re-run")

	runCmd.Flags().StringVar(&waitForFlag, "wait-for", "", "Poll this URL before running (may reference variables)")
	runCmd.Flags().IntVar(&waitForStatusFlag, "wait-for-status", getEnvInt("REQCHAIN_WAIT_FOR_STATUS", 200), "Status code --wait-for expects")
	runCmd.Flags().StringVar(&waitForTimeoutFlag, "wait-for-timeout", "30s", "How long --wait-for polls before giving up")
}

// runConfig layers the run flags over the loaded configuration.
func runConfig() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	flags := &config.Config{
		DefaultEnvironment: envFlag,
		Proxy:              proxyFlag,
		Output:             strings.ToLower(outputFlag),
		Rate:               rateFlag,
		EnvFile:            envFileFlag,
	}
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, &usageError{msg: fmt.Sprintf("invalid timeout value %q: %v (use format like 30s, 1m, 500ms)", timeoutFlag, err)}
		}
		flags.Timeout = int(d.Milliseconds())
	}
	if insecureFlag {
		flags.ValidateSSL = config.BoolPtr(false)
	}
	if restrictFilesFlag {
		flags.RestrictFiles = config.BoolPtr(true)
	}
	return cfg.Merge(flags), nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	file := args[0]
	names := args[1:]
	if len(names) == 0 && sequenceFlag == "" {
		return &usageError{msg: "name at least one request or pass --sequence"}
	}
	if len(names) > 0 && sequenceFlag != "" {
		return &usageError{msg: "requests and --sequence cannot be combined"}
	}

	cfg, err := runConfig()
	if err != nil {
		return err
	}

	if _, err := output.New(cfg.Output, io.Discard, false, true); err != nil {
		return &usageError{msg: err.Error()}
	}

	overrides, err := parseOverrides(setFlag)
	if err != nil {
		return &usageError{msg: err.Error()}
	}

	if cfg.EnvFile != "" {
		if _, err := env.LoadAndExportDotEnv(cfg.EnvFile); err != nil {
			return &configError{err: err}
		}
	}

	var outWriter io.Writer = cmd.OutOrStdout()
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		outWriter = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &plan{
		file:      file,
		names:     names,
		sequence:  sequenceFlag,
		cfg:       cfg,
		overrides: overrides,
		out:       outWriter,
	}

	s, runErr := p.execute(ctx)

	if !watchFlag {
		if runErr != nil {
			return &exitError{code: exitCodeFor(runErr)}
		}
		return nil
	}

	return watch(ctx, cmd, p, s)
}

// plan is one configured invocation of run, repeatable in watch mode.
type plan struct {
	file      string
	names     []string
	sequence  string
	cfg       *config.Config
	overrides env.Overrides
	out       io.Writer
}

func (p *plan) runnerOptions() []runner.Option {
	opts := []runner.Option{
		runner.WithTransport(newClient(p.cfg)),
		runner.WithWarnFunc(warn),
		runner.WithOverrides(p.overrides.Clone()),
		runner.WithRestrictToBaseDir(p.cfg.GetRestrictFiles()),
	}
	if p.cfg.DefaultEnvironment != "" {
		opts = append(opts, runner.WithEnvironment(p.cfg.DefaultEnvironment))
	}
	if projectFlag {
		opts = append(opts, runner.AsProject())
	}
	return opts
}

func (p *plan) queueOptions(formatter output.Formatter) []runner.QueueOption {
	opts := []runner.QueueOption{
		runner.WithObserver(formatter.FormatCall),
	}
	if p.cfg.Rate > 0 {
		opts = append(opts, runner.WithPacer(rate.NewLimiter(rate.Limit(p.cfg.Rate), 1)))
	}
	return opts
}

// execute loads the schema and runs every requested queue with one runner.
// It returns the loaded schema, nil when loading failed, and the first
// failure.
func (p *plan) execute(ctx context.Context) (*schema.Schema, error) {
	formatter, err := output.New(p.cfg.Output, p.out, p.cfg.GetVerbose(), p.cfg.GetNoColor())
	if err != nil {
		return nil, err
	}
	formatter.FormatHeader(version)

	start := time.Now()
	defer func() {
		if flushable, ok := formatter.(output.Flushable); ok {
			if err := flushable.Flush(time.Since(start)); err != nil {
				warn("error writing output: %v", err)
			}
		}
	}()

	r, err := runner.New(p.file, p.runnerOptions()...)
	if err != nil {
		formatter.FormatError(err)
		return nil, err
	}

	if waitForFlag != "" {
		timeout, err := time.ParseDuration(waitForTimeoutFlag)
		if err != nil {
			err = &usageError{msg: fmt.Sprintf("invalid wait-for timeout %q: %v", waitForTimeoutFlag, err)}
			formatter.FormatError(err)
			return r.Schema(), err
		}
		err = r.WaitFor(ctx, runner.WaitForConfig{
			URL:     waitForFlag,
			Status:  waitForStatusFlag,
			Timeout: timeout,
		})
		if err != nil {
			formatter.FormatError(err)
			return r.Schema(), fmt.Errorf("%w: %v", runner.ErrTransport, err)
		}
	}

	opts := p.queueOptions(formatter)

	if p.sequence != "" {
		result, err := r.RunSequence(ctx, p.sequence, opts...)
		if err != nil {
			formatter.FormatError(err)
			return r.Schema(), err
		}
		formatter.FormatResult(result)
		return r.Schema(), result.Err
	}

	for _, name := range p.names {
		result, err := r.RunRequest(ctx, name, opts...)
		if err != nil {
			formatter.FormatError(err)
			return r.Schema(), err
		}
		formatter.FormatResult(result)
		if result.Err != nil {
			return r.Schema(), result.Err
		}
	}
	return r.Schema(), nil
}

// watch re-runs p whenever one of the schema files changes.
func watch(ctx context.Context, cmd *cobra.Command, p *plan, s *schema.Schema) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	addDirs := func(s *schema.Schema) {
		for _, file := range schemaFiles(p.file, s) {
			dir := filepath.Dir(file)
			if watched[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				warn("failed to watch %s: %v", dir, err)
				continue
			}
			watched[dir] = true
		}
	}
	addDirs(s)

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounce <-chan time.Time
	var changed string

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write|fsnotify.Create) && isSchemaFile(event.Name) {
				changed = event.Name
				debounce = time.After(WatchDebounceDelay)
			}

		case <-debounce:
			debounce = nil
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running...\n\n", changed)
			if s, _ := p.execute(ctx); s != nil {
				addDirs(s)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			warn("watcher error: %v", err)
		}
	}
}

// schemaFiles lists the root file and every file that contributed to s.
func schemaFiles(root string, s *schema.Schema) []string {
	seen := map[string]bool{root: true}
	files := []string{root}
	add := func(path string) {
		if path != "" && !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	if s == nil {
		return files
	}
	for _, name := range s.Env.Keys() {
		add(s.Env.Get(name).Source)
	}
	for _, name := range s.RequestNames() {
		add(s.Requests[name].Source)
	}
	for _, name := range s.SequenceNames() {
		add(s.Calls[name].Source)
	}
	return files
}

func isSchemaFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}
