package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/heyraji/heyraji/internal/auth"
	heyerrors "github.com/heyraji/heyraji/internal/errors"
	"github.com/heyraji/heyraji/internal/log"
	"github.com/heyraji/heyraji/internal/metrics"
	"github.com/heyraji/heyraji/internal/platform"
	"github.com/heyraji/heyraji/internal/settings"
	"github.com/heyraji/heyraji/internal/storage"
	"github.com/heyraji/heyraji/internal/version"
)

// appRuntime carries what one invocation builds once: config, logger,
// metrics and the lazily opened storage.
type appRuntime struct {
	cmdCtx   *CommandContext
	config   *AppConfig
	logger   *log.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	command string
	started time.Time

	store   storage.Storage
	closers []func() error
}

// rt is the runtime of the command being executed.
var rt *appRuntime

func setupRuntime(cmd *cobra.Command, _ []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	config, err := loadConfig(cmdCtx.Home)
	if err != nil {
		return err
	}

	level, format := cmdCtx.LogLevel, cmdCtx.LogFormat
	if level == "" {
		level = config.Logging.Level
	}
	if format == "" {
		format = config.Logging.Format
	}
	logCfg := log.FromStrings(level, format)
	logCfg.Output = log.NewOutput(cmd.ErrOrStderr())
	logCfg.ServiceVersion = version.Version
	logger := log.New(logCfg)
	log.SetDefaultLogger(logger)

	registry, m := metrics.NewRegistry()

	rt = &appRuntime{
		cmdCtx:   cmdCtx,
		config:   config,
		logger:   logger,
		registry: registry,
		metrics:  m,
		command:  cmd.CommandPath(),
		started:  time.Now(),
	}
	logger.Debug("command started", "command", rt.command, "home", cmdCtx.Home)
	return nil
}

// finish records the command outcome, writes the metrics file and closes
// what the command opened.
func (a *appRuntime) finish(cmdErr error) error {
	elapsed := time.Since(a.started)
	a.metrics.RecordCommand(a.command, cmdErr == nil, elapsed)
	if cmdErr != nil {
		var coded interface{ ErrorCode() string }
		code := ""
		if errors.As(cmdErr, &coded) {
			code = coded.ErrorCode()
		}
		a.metrics.RecordError(code, "cmd")
		a.logger.WithError(cmdErr).Debug("command failed", "command", a.command, "duration", elapsed)
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}

	if a.cmdCtx.MetricsFile != "" {
		if err := metrics.WriteTextfile(a.cmdCtx.MetricsFile, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics file: %w", err))
		}
	}
	return errors.Join(errs...)
}

// storage opens the configured settings storage once per invocation.
func (a *appRuntime) storage(ctx context.Context) (storage.Storage, error) {
	if a.store != nil {
		return a.store, nil
	}

	switch a.config.Storage.Driver {
	case "", DriverFile:
		path := a.config.Storage.Path
		if path == "" {
			path = filepath.Join(a.cmdCtx.Home, "storage.json")
		}
		a.store = storage.NewFileStorage(path)
	case DriverPostgres:
		if a.config.Storage.DSN == "" {
			return nil, heyerrors.New(heyerrors.ErrCodeStorageDriver, "storage.driver is postgres but no database URL is set").
				WithSuggestion(fmt.Sprintf("Set %s or run 'heyraji config set storage.dsn postgres://...'", EnvDatabaseURL))
		}
		pg, err := storage.OpenPostgres(ctx, a.config.Storage.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		a.store = pg
	default:
		return nil, heyerrors.New(heyerrors.ErrCodeStorageDriver, fmt.Sprintf("unknown storage driver %q", a.config.Storage.Driver)).
			WithSuggestion("Run 'heyraji config set storage.driver file'")
	}
	return a.store, nil
}

// storageLocation describes where settings live, for 'settings path'.
func (a *appRuntime) storageLocation(ctx context.Context) (string, error) {
	store, err := a.storage(ctx)
	if err != nil {
		return "", err
	}
	if fs, ok := store.(*storage.FileStorage); ok {
		return fs.Path(), nil
	}
	return fmt.Sprintf("postgres %s (table heyraji_storage, key %s)", redactDSN(a.config.Storage.DSN), settings.StorageKey), nil
}

func (a *appRuntime) settingsResolver(ctx context.Context) (*settings.Resolver, error) {
	store, err := a.storage(ctx)
	if err != nil {
		return nil, err
	}
	return settings.NewResolver(store, settings.WithLogger(a.logger), settings.WithMetrics(a.metrics)), nil
}

func (a *appRuntime) sessionStore() auth.SessionStore {
	if a.config.Session.Backend == BackendFile {
		return auth.NewFileStore(filepath.Join(a.cmdCtx.Home, "session.json"))
	}
	return auth.NewKeyringStore("", "")
}

func (a *appRuntime) platformClient(ctx context.Context) (*platform.Client, error) {
	if a.config.Auth.URL == "" {
		return nil, heyerrors.NewAuthURLMissingError()
	}
	store, err := a.storage(ctx)
	if err != nil {
		return nil, err
	}
	return platform.NewClient(a.config.Auth.URL, a.config.Auth.AnonKey,
		platform.WithStorage(store),
		platform.WithRedirectURL(a.config.Auth.RedirectURL),
		platform.WithLogger(a.logger),
		platform.WithMetrics(a.metrics),
	), nil
}

func (a *appRuntime) authClient(ctx context.Context) (*auth.Client, error) {
	provider, err := a.platformClient(ctx)
	if err != nil {
		return nil, err
	}
	client := auth.NewClient(provider, a.sessionStore(), auth.WithLogger(a.logger), auth.WithMetrics(a.metrics))

	// State changes are logged once the command is done.
	sub := client.Subscribe(8)
	a.closers = append(a.closers, func() error {
		sub.Unsubscribe()
		for change := range sub.C {
			email := ""
			if change.Session != nil {
				email = change.Session.Email
			}
			a.logger.Info("auth state changed", "event", change.Event, "email", email)
		}
		return nil
	})
	return client, nil
}
