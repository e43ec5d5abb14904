package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// HomeEnv overrides the default HeyRaji home directory when --home is unset.
const HomeEnv = "HEYRAJI_HOME"

// CommandContext holds the global flag values for one command invocation.
type CommandContext struct {
	// Output control
	Format  string
	NoColor bool

	// Logging
	LogLevel  string
	LogFormat string

	// Home is the resolved HeyRaji home directory
	Home        string
	MetricsFile string
}

// NewCommandContext extracts command context from cobra.Command flags.
// Commands call this in their RunE function to get their configuration:
//
//	func runCommand(cmd *cobra.Command, args []string) error {
//		cmdCtx, err := NewCommandContext(cmd)
//		if err != nil {
//			return fmt.Errorf("failed to create command context: %w", err)
//		}
//		// Use cmdCtx.Format, cmdCtx.Home, etc.
//	}
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return nil, err
	}

	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	logFormat, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return nil, err
	}

	home, err := cmd.Flags().GetString("home")
	if err != nil {
		return nil, err
	}
	home, err = resolveHome(home)
	if err != nil {
		return nil, err
	}

	metricsFile, err := cmd.Flags().GetString("metrics-file")
	if err != nil {
		return nil, err
	}

	switch format {
	case "text", "json", "yaml":
	default:
		return nil, fmt.Errorf("invalid argument %q for --format: must be text, json or yaml", format)
	}

	return &CommandContext{
		Format:      format,
		NoColor:     noColor || os.Getenv("NO_COLOR") != "",
		LogLevel:    logLevel,
		LogFormat:   logFormat,
		Home:        home,
		MetricsFile: metricsFile,
	}, nil
}

// resolveHome picks the home directory: flag, then HEYRAJI_HOME, then
// ~/.heyraji.
func resolveHome(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(userHome, ".heyraji"), nil
}
