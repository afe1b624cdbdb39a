package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/reqchain/packages/core/runner"
)

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// FormatCall prints one line per finished call.
func (f *ConsoleFormatter) FormatCall(c *runner.CallResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if c.Skipped {
		fmt.Fprintf(f.writer, "  %s %s (skipped after failure)\n", yellow("-"), c.Name)
		return
	}

	if c.Err != nil {
		fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), c.Name, cyan(fmt.Sprintf("(%s)", c.FailedAt)))
		fmt.Fprintf(f.writer, "    %s %v\n", red("→"), c.Err)
		return
	}

	fmt.Fprintf(f.writer, "  %s %s %s\n", green("✓"), c.Name, cyan(fmt.Sprintf("(%dms)", c.Duration.Milliseconds())))

	if !f.verbose {
		return
	}

	if c.Request != nil {
		fmt.Fprintf(f.writer, "    %s %s\n", c.Request.Method, c.Request.URL)
	}
	if c.Response != nil {
		status := green
		if !c.Response.IsSuccess() {
			status = yellow
		}
		fmt.Fprintf(f.writer, "    Status: %s\n", status(c.Response.Status))
		if ct := c.Response.ContentType(); ct != "" {
			fmt.Fprintf(f.writer, "    Type:   %s\n", ct)
		}
		if len(c.Response.Body) > 0 {
			var body any = c.Response.BodyString()
			if c.Response.IsJSON() {
				if parsed, err := c.Response.BodyJSON(); err == nil {
					body = parsed
				}
			}
			fmt.Fprintf(f.writer, "    Body:   %s\n", formatValue(body, 200))
		}
	}
}

// FormatResult prints the summary of a finished queue.
func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s ", bold(suiteName(result)+":"))
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	total := result.Passed + result.Failed + result.Skipped
	fmt.Fprintf(f.writer, "%d total\n", total)
	fmt.Fprintf(f.writer, "Time:    %dms\n", result.Duration.Milliseconds())

	if lat := Summarize(result.Calls); lat.Count > 0 {
		fmt.Fprintf(f.writer, "Latency: p50 %s, p95 %s, p99 %s, max %s\n",
			ms(lat.P50), ms(lat.P95), ms(lat.P99), ms(lat.Max))
	}

	if f.verbose {
		for _, c := range result.Calls {
			if status := responseStatus(c); status != 0 {
				fmt.Fprintf(f.writer, "  %-24s %d\n", c.Name, status)
			}
		}
	}
	fmt.Fprintf(f.writer, "\n")
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("reqchain"), version)
}
