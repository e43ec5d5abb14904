package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heyraji/heyraji/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including version number, git commit,
build date, Go version, and platform. --format json or yaml prints every
field.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "show detailed version information")

	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.GetInfo()

	if rt.cmdCtx.Format != "text" {
		formatter, err := newFormatter(cmd)
		if err != nil {
			return err
		}
		return formatter.Format(info)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		fmt.Fprintln(cmd.OutOrStdout(), info.String())
		if !info.Release {
			fmt.Fprintln(cmd.OutOrStdout(), "development build")
		}
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "heyraji %s\n", info.Short())
	return nil
}
