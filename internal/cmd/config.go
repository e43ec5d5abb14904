package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	heyerrors "github.com/heyraji/heyraji/internal/errors"
	"github.com/heyraji/heyraji/internal/ux"
)

// Environment variables that override config file values.
const (
	EnvAuthURL     = "HEYRAJI_AUTH_URL"
	EnvAuthAnonKey = "HEYRAJI_AUTH_ANON_KEY"
	EnvRedirectURL = "HEYRAJI_REDIRECT_URL"
	EnvDatabaseURL = "HEYRAJI_DATABASE_URL"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit HeyRaji configuration",
	Long: `Manage HeyRaji configuration stored at <home>/config.yaml (default ~/.heyraji).

Configuration includes:
  • Auth backend URL and anon key
  • Settings storage driver (file or postgres)
  • Session backend (keyring or file)
  • Logging defaults

Values from a .env file in the working directory or home directory and the
HEYRAJI_AUTH_URL, HEYRAJI_AUTH_ANON_KEY, HEYRAJI_REDIRECT_URL and
HEYRAJI_DATABASE_URL environment variables take precedence over the file.

Examples:
  # View effective configuration
  heyraji config view

  # Get a specific value
  heyraji config get auth.url

  # Point the CLI at your auth backend
  heyraji config set auth.url https://abc.supabase.co

  # Show configuration file path
  heyraji config path
`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display current configuration",
	Long:  `Display the effective HeyRaji configuration (file values with environment overrides applied).`,
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  `Retrieve the value of a specific configuration key using dot notation (e.g., auth.url).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a specific configuration value",
	Long:  `Set the value of a specific configuration key using dot notation (e.g., session.backend file).`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

// AppConfig represents the HeyRaji configuration file.
type AppConfig struct {
	Auth    AuthConfig    `yaml:"auth" json:"auth"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Session SessionConfig `yaml:"session" json:"session"`
	Logging LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`
}

type AuthConfig struct {
	URL             string `yaml:"url,omitempty" json:"url,omitempty"`
	AnonKey         string `yaml:"anon_key,omitempty" json:"anon_key,omitempty"`
	RedirectURL     string `yaml:"redirect_url,omitempty" json:"redirect_url,omitempty"`
	SiteURL         string `yaml:"site_url,omitempty" json:"site_url,omitempty"`
	CallbackTimeout string `yaml:"callback_timeout,omitempty" json:"callback_timeout,omitempty"` // Go duration, e.g. "30s"
}

type StorageConfig struct {
	Driver string `yaml:"driver" json:"driver"`                 // "file" or "postgres"
	Path   string `yaml:"path,omitempty" json:"path,omitempty"` // Default <home>/storage.json
	DSN    string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
}

type SessionConfig struct {
	Backend string `yaml:"backend" json:"backend"` // "keyring" or "file"
}

type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// Storage drivers and session backends.
const (
	DriverFile      = "file"
	DriverPostgres  = "postgres"
	BackendKeyring  = "keyring"
	BackendFile     = "file"
	configFileName  = "config.yaml"
	defaultLogLevel = "warn"
)

var configKeys = []string{
	"auth.url",
	"auth.anon_key",
	"auth.redirect_url",
	"auth.site_url",
	"auth.callback_timeout",
	"storage.driver",
	"storage.path",
	"storage.dsn",
	"session.backend",
	"logging.level",
	"logging.format",
}

// defaultAppConfig returns the configuration written on first use.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{Driver: DriverFile},
		Session: SessionConfig{Backend: BackendKeyring},
		Logging: LoggingConfig{Level: defaultLogLevel, Format: "text"},
	}
}

// getConfigPath returns the path to the configuration file under home,
// creating home if needed.
func getConfigPath(home string) (string, error) {
	if err := os.MkdirAll(home, 0700); err != nil {
		return "", heyerrors.Wrap(heyerrors.ErrCodeDirectoryFailed, "failed to create home directory", err)
	}
	return filepath.Join(home, configFileName), nil
}

// loadConfigFile loads the configuration file, creating a default one if it
// doesn't exist. Environment overrides are not applied.
func loadConfigFile(home string) (*AppConfig, error) {
	configPath, err := getConfigPath(home)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		config := defaultAppConfig()
		if err := saveConfig(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}
	if err != nil {
		return nil, heyerrors.Wrap(heyerrors.ErrCodeFileReadFailed, "failed to read config", err)
	}

	config := defaultAppConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, heyerrors.NewFileUnmarshalError(configPath, "YAML", err)
	}
	return config, nil
}

// loadConfig loads the configuration file and applies .env and environment
// overrides.
func loadConfig(home string) (*AppConfig, error) {
	config, err := loadConfigFile(home)
	if err != nil {
		return nil, err
	}
	if err := loadDotEnv(home); err != nil {
		return nil, err
	}
	applyEnv(config)
	return config, nil
}

// loadDotEnv loads .env from the working directory and from home. Variables
// already present in the environment win.
func loadDotEnv(home string) error {
	var files []string
	if cwd, err := os.Getwd(); err == nil {
		files = append(files, filepath.Join(cwd, ".env"))
	}
	files = append(files, filepath.Join(home, ".env"))

	for _, f := range lo.Uniq(files) {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return heyerrors.NewFileUnmarshalError(f, "dotenv", err)
		}
	}
	return nil
}

func applyEnv(config *AppConfig) {
	if v := os.Getenv(EnvAuthURL); v != "" {
		config.Auth.URL = v
	}
	if v := os.Getenv(EnvAuthAnonKey); v != "" {
		config.Auth.AnonKey = v
	}
	if v := os.Getenv(EnvRedirectURL); v != "" {
		config.Auth.RedirectURL = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		config.Storage.DSN = v
	}
}

// saveConfig saves the configuration to the file
func saveConfig(config *AppConfig, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return heyerrors.Wrap(heyerrors.ErrCodeFileMarshal, "failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return heyerrors.Wrap(heyerrors.ErrCodeFileWriteFailed, "failed to write config", err)
	}

	return nil
}

// callbackTimeout returns the configured callback guard, zero when unset.
func (c *AppConfig) callbackTimeout() (time.Duration, error) {
	if c.Auth.CallbackTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Auth.CallbackTimeout)
	if err != nil {
		return 0, heyerrors.Wrap(heyerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid auth.callback_timeout %q", c.Auth.CallbackTimeout), err)
	}
	return d, nil
}

// redacted returns a copy safe to print.
func (c *AppConfig) redacted() *AppConfig {
	out := *c
	out.Auth.AnonKey = redact(c.Auth.AnonKey)
	out.Storage.DSN = redactDSN(c.Storage.DSN)
	return &out
}

func redact(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + "…" + s[len(s)-4:]
}

func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	if i := strings.Index(userinfo, ":"); i >= 0 {
		userinfo = userinfo[:i] + ":***"
	}
	return dsn[:scheme+3] + userinfo + dsn[at:]
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	config, err := loadConfig(cmdCtx.Home)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}
	view := config.redacted()

	if cmdCtx.Format == "json" || cmdCtx.Format == "yaml" {
		formatter, err := ux.NewFormatter(cmdCtx.Format, &ux.FormatterOptions{
			NoColor: cmdCtx.NoColor,
			Writer:  cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		return formatter.Format(view)
	}

	configPath, _ := getConfigPath(cmdCtx.Home)
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration file: %s\n\n", configPath)

	data, err := yaml.Marshal(view)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	config, err := loadConfig(cmdCtx.Home)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	value, err := getNestedValue(config, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	// Environment overrides are not persisted.
	config, err := loadConfigFile(cmdCtx.Home)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	if err := setNestedValue(config, key, value); err != nil {
		return err
	}

	configPath, err := getConfigPath(cmdCtx.Home)
	if err != nil {
		return err
	}

	if err := saveConfig(config, configPath); err != nil {
		return ux.FormatError(err, "saving configuration")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s = %s\n", key, value)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	configPath, err := getConfigPath(cmdCtx.Home)
	if err != nil {
		return ux.FormatError(err, "getting config path")
	}

	fmt.Fprintln(cmd.OutOrStdout(), configPath)
	return nil
}

func unknownConfigKey(key string) error {
	return heyerrors.New(heyerrors.ErrCodeConfigUnknownKey, fmt.Sprintf("unknown configuration key: %s", key)).
		WithSuggestion(fmt.Sprintf("Known keys: %s", strings.Join(configKeys, ", ")))
}

func invalidConfigValue(key, value string, allowed ...string) error {
	return heyerrors.New(heyerrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid value %q for %s", value, key)).
		WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(allowed, ", ")))
}

// getNestedValue retrieves a value from the config using dot notation
func getNestedValue(config *AppConfig, key string) (string, error) {
	switch key {
	case "auth.url":
		return config.Auth.URL, nil
	case "auth.anon_key":
		return redact(config.Auth.AnonKey), nil
	case "auth.redirect_url":
		return config.Auth.RedirectURL, nil
	case "auth.site_url":
		return config.Auth.SiteURL, nil
	case "auth.callback_timeout":
		return config.Auth.CallbackTimeout, nil
	case "storage.driver":
		return config.Storage.Driver, nil
	case "storage.path":
		return config.Storage.Path, nil
	case "storage.dsn":
		return redactDSN(config.Storage.DSN), nil
	case "session.backend":
		return config.Session.Backend, nil
	case "logging.level":
		return config.Logging.Level, nil
	case "logging.format":
		return config.Logging.Format, nil
	default:
		return "", unknownConfigKey(key)
	}
}

// setNestedValue sets a value in the config using dot notation
func setNestedValue(config *AppConfig, key, value string) error {
	switch key {
	case "auth.url":
		config.Auth.URL = strings.TrimRight(value, "/")
	case "auth.anon_key":
		config.Auth.AnonKey = value
	case "auth.redirect_url":
		config.Auth.RedirectURL = value
	case "auth.site_url":
		config.Auth.SiteURL = value
	case "auth.callback_timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return invalidConfigValue(key, value, "a Go duration such as 30s or 1m")
		}
		config.Auth.CallbackTimeout = value
	case "storage.driver":
		if !lo.Contains([]string{DriverFile, DriverPostgres}, value) {
			return invalidConfigValue(key, value, DriverFile, DriverPostgres)
		}
		config.Storage.Driver = value
	case "storage.path":
		config.Storage.Path = value
	case "storage.dsn":
		config.Storage.DSN = value
	case "session.backend":
		if !lo.Contains([]string{BackendKeyring, BackendFile}, value) {
			return invalidConfigValue(key, value, BackendKeyring, BackendFile)
		}
		config.Session.Backend = value
	case "logging.level":
		if !lo.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(value)) {
			return invalidConfigValue(key, value, "debug", "info", "warn", "error")
		}
		config.Logging.Level = strings.ToLower(value)
	case "logging.format":
		if !lo.Contains([]string{"json", "text"}, strings.ToLower(value)) {
			return invalidConfigValue(key, value, "json", "text")
		}
		config.Logging.Format = strings.ToLower(value)
	default:
		return unknownConfigKey(key)
	}

	return nil
}
