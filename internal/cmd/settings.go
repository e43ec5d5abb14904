package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	heyerrors "github.com/heyraji/heyraji/internal/errors"
	"github.com/heyraji/heyraji/internal/settings"
	"github.com/heyraji/heyraji/internal/tui"
	"github.com/heyraji/heyraji/internal/ux"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View or change extension settings",
	Long: `Read and write the extension settings record.

Reads never fail: missing fields take their defaults, regional language
codes such as pt-BR resolve to their base language, and an unreadable
store yields the defaults.

Examples:
  heyraji settings view
  heyraji settings get language
  heyraji settings set language pt-BR
  heyraji settings set useTabGroups false
  heyraji settings locales
`,
}

var settingsViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display the resolved settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsView,
}

var settingsGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Get one setting",
	Args:      cobra.ExactArgs(1),
	ValidArgs: settingKeys,
	RunE:      runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change one setting",
	Long: `Change one setting, leaving the others as they are.

language accepts any supported locale or a regional variant of one
(pt-BR, zh_TW); other values are rejected. Boolean settings accept
true/false, 1/0 and t/f. When the value is omitted in a terminal you are
prompted for it.`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: settingKeys,
	RunE:      runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the stored settings so every field takes its default",
	Long: `Remove the stored settings record so every field takes its default.

In a terminal you are asked to confirm unless --yes is given.`,
	Args: cobra.NoArgs,
	RunE: runSettingsReset,
}

var settingsLocalesCmd = &cobra.Command{
	Use:   "locales",
	Short: "List supported languages",
	Args:  cobra.NoArgs,
	RunE:  runSettingsLocales,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show where settings are stored",
	Args:  cobra.NoArgs,
	RunE:  runSettingsPath,
}

func init() {
	settingsResetCmd.Flags().BoolP("yes", "y", false, "Reset without asking for confirmation")

	settingsCmd.AddCommand(settingsViewCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	settingsCmd.AddCommand(settingsLocalesCmd)
	settingsCmd.AddCommand(settingsPathCmd)

	rootCmd.AddCommand(settingsCmd)
}

// Setting keys, as stored.
const (
	keyLanguage       = "language"
	keyAutoSummarize  = "autoSummarize"
	keyCloseTabOnSave = "closeTabOnSave"
	keyUseTabGroups   = "useTabGroups"
)

var settingKeys = []string{keyLanguage, keyAutoSummarize, keyCloseTabOnSave, keyUseTabGroups}

func settingsMap(s settings.UserSettings) map[string]string {
	return map[string]string{
		keyLanguage:       string(s.Language),
		keyAutoSummarize:  strconv.FormatBool(s.AutoSummarize),
		keyCloseTabOnSave: strconv.FormatBool(s.CloseTabOnSave),
		keyUseTabGroups:   strconv.FormatBool(s.UseTabGroups),
	}
}

// parseSettingUpdate turns a key/value pair into a partial update.
func parseSettingUpdate(key, value string) (settings.Partial, error) {
	var update settings.Partial
	if !lo.Contains(settingKeys, key) {
		return update, heyerrors.NewUnknownSettingError(key, settingKeys)
	}

	if key == keyLanguage {
		update.Language = lo.ToPtr(value)
		return update, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return update, heyerrors.NewInvalidSettingValueError(key, value, "true or false")
	}
	switch key {
	case keyAutoSummarize:
		update.AutoSummarize = &b
	case keyCloseTabOnSave:
		update.CloseTabOnSave = &b
	case keyUseTabGroups:
		update.UseTabGroups = &b
	}
	return update, nil
}

func newFormatter(cmd *cobra.Command) (ux.Formatter, error) {
	return ux.NewFormatter(rt.cmdCtx.Format, &ux.FormatterOptions{
		NoColor: rt.cmdCtx.NoColor,
		Writer:  cmd.OutOrStdout(),
	})
}

func runSettingsView(cmd *cobra.Command, args []string) error {
	resolver, err := rt.settingsResolver(cmd.Context())
	if err != nil {
		return err
	}

	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}
	return formatter.Format(resolver.Get(cmd.Context()))
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !lo.Contains(settingKeys, key) {
		return heyerrors.NewUnknownSettingError(key, settingKeys)
	}

	resolver, err := rt.settingsResolver(cmd.Context())
	if err != nil {
		return err
	}

	value := settingsMap(resolver.Get(cmd.Context()))[key]
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}
	if rt.cmdCtx.Format == "text" {
		return formatter.Format(value)
	}
	return formatter.Format(map[string]string{key: value})
}

// promptSettingValue asks for the value of key when none was given on the
// command line.
func promptSettingValue(key string) (string, error) {
	if !lo.Contains(settingKeys, key) {
		return "", heyerrors.NewUnknownSettingError(key, settingKeys)
	}
	if !tui.ShouldPrompt() {
		expected := "true or false"
		if key == keyLanguage {
			expected = "one of " + strings.Join(settings.SupportedLocaleNames(), ", ")
		}
		return "", heyerrors.NewInvalidSettingValueError(key, "", expected)
	}

	if key == keyLanguage {
		return tui.PromptForSelect("Language", settings.SupportedLocaleNames())
	}
	enabled, err := tui.PromptForConfirmation(fmt.Sprintf("Enable %s?", key), false)
	if err != nil {
		return "", err
	}
	return strconv.FormatBool(enabled), nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		var err error
		if value, err = promptSettingValue(key); err != nil {
			return err
		}
	}

	update, err := parseSettingUpdate(key, value)
	if err != nil {
		return err
	}

	resolver, err := rt.settingsResolver(cmd.Context())
	if err != nil {
		return err
	}

	saved, err := resolver.Save(cmd.Context(), update)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s = %s\n", key, settingsMap(saved)[key])
	return nil
}

func runSettingsReset(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && tui.ShouldPrompt() {
		confirmed, err := tui.PromptForConfirmation("Reset all settings to their defaults?", false)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(cmd.OutOrStdout(), "Settings left unchanged")
			return nil
		}
	}

	store, err := rt.storage(cmd.Context())
	if err != nil {
		return err
	}
	if err := store.Remove(cmd.Context(), settings.StorageKey); err != nil {
		return heyerrors.Wrap(heyerrors.ErrCodeSettingsWriteFailed, "failed to reset settings", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Settings reset to defaults")
	return nil
}

func runSettingsLocales(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}
	return formatter.Format(settings.SupportedLocaleNames())
}

func runSettingsPath(cmd *cobra.Command, args []string) error {
	location, err := rt.storageLocation(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), location)
	return nil
}
