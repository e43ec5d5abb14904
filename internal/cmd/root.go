package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "heyraji",
	Short: "HeyRaji settings and sign-in from the command line",
	Long: `heyraji drives the HeyRaji extension core outside the browser.

It resolves the user's extension settings (language, auto-summarize, tab
behaviour) from persisted storage, and runs the email one-time-code sign-in
handshake against the HeyRaji auth backend, including completing a sign-in
from a pasted redirect URL.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupRuntime,
}

// ExecuteContext runs the root command with ctx, which commands pass to
// every storage and network call. Metrics for the invocation are recorded
// and flushed whether or not the command succeeds.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if rt != nil {
		if ferr := rt.finish(err); ferr != nil && err == nil {
			err = ferr
		}
		rt = nil
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("home", "", "HeyRaji home directory (default $HEYRAJI_HOME or ~/.heyraji)")
	flags.String("format", "text", "output format: text, json or yaml")
	flags.String("log-level", "", "log level: debug, info, warn or error (default from config, warn)")
	flags.String("log-format", "", "log format: text or json (default from config, text)")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("metrics-file", "", "write Prometheus metrics for this run to `path` (textfile collector format)")
}
