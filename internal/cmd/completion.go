package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `To load completions:

Bash:
  $ source <(heyraji completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ heyraji completion bash > /etc/bash_completion.d/heyraji
  # macOS:
  $ heyraji completion bash > $(brew --prefix)/etc/bash_completion.d/heyraji

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ heyraji completion zsh > "${fpath[1]}/_heyraji"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ heyraji completion fish | source

  # To load completions for each session, execute once:
  $ heyraji completion fish > ~/.config/fish/completions/heyraji.fish

PowerShell:
  PS> heyraji completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> heyraji completion powershell > heyraji.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:                  runCompletion,
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch args[0] {
	case "bash":
		return rootCmd.GenBashCompletionV2(out, true)
	case "zsh":
		return rootCmd.GenZshCompletion(out)
	case "fish":
		return rootCmd.GenFishCompletion(out, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	}
	return nil
}
