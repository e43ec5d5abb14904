package settings

import (
	"context"
	"encoding/json"

	"github.com/heyraji/heyraji/internal/errors"
	"github.com/heyraji/heyraji/internal/log"
	"github.com/heyraji/heyraji/internal/metrics"
	"github.com/heyraji/heyraji/internal/storage"
)

// Resolver reads and writes UserSettings through a storage.Storage.
type Resolver struct {
	store   storage.Storage
	logger  *log.Logger
	metrics *metrics.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for migration and fallback records.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics enables settings counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver creates a Resolver over store.
func NewResolver(store storage.Storage, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		logger: log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "settings")
	return r
}

// Get returns the current settings. It never fails: a storage error or an
// undecodable record is logged and the defaults are returned. A single field
// of the wrong type falls back to its own default only.
func (r *Resolver) Get(ctx context.Context) UserSettings {
	raw, found, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		r.logger.WithError(err).WarnContext(ctx, "settings read failed, using defaults")
		r.metrics.RecordSettingsLoad("fallback")
		return Defaults()
	}
	if !found {
		r.metrics.RecordSettingsLoad("defaults")
		return Defaults()
	}

	stored, err := r.decode(ctx, raw)
	if err != nil {
		r.logger.WithError(err).WarnContext(ctx, "settings record is not decodable, using defaults")
		r.metrics.RecordSettingsLoad("fallback")
		return Defaults()
	}

	r.metrics.RecordSettingsLoad("stored")
	return r.resolve(ctx, stored, true)
}

// decode reads each known field on its own. Fields that are absent or of the
// wrong type stay nil; only a record that is not a JSON object is an error.
func (r *Resolver) decode(ctx context.Context, raw json.RawMessage) (storedSettings, error) {
	var stored storedSettings
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return stored, err
	}

	targets := map[string]any{
		"language":        &stored.Language,
		"autoSummarize":   &stored.AutoSummarize,
		"closeTabOnSave":  &stored.CloseTabOnSave,
		"useTabGroups":    &stored.UseTabGroups,
		"summaryLanguage": &stored.SummaryLanguage,
	}
	for key, target := range targets {
		value, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			r.logger.WithError(err).InfoContext(ctx, "stored setting has the wrong type, using default", "key", key)
		}
	}
	return stored, nil
}

// resolve applies defaults and locale migration. record is false when Save
// resolves its base record, so metrics count reads only.
func (r *Resolver) resolve(ctx context.Context, stored storedSettings, record bool) UserSettings {
	s := Defaults()

	if stored.Language != nil {
		lang, ok := NormalizeLocale(*stored.Language)
		switch {
		case !ok:
			r.logger.InfoContext(ctx, "stored language unsupported, using default",
				"stored", *stored.Language, "language", lang)
			if record {
				r.metrics.RecordLocaleMigration("fallback")
			}
		case string(lang) != *stored.Language:
			r.logger.DebugContext(ctx, "migrated legacy language code",
				"stored", *stored.Language, "language", lang)
			if record {
				r.metrics.RecordLocaleMigration("regional")
			}
		}
		s.Language = lang
	}
	if stored.AutoSummarize != nil {
		s.AutoSummarize = *stored.AutoSummarize
	}
	if stored.CloseTabOnSave != nil {
		s.CloseTabOnSave = *stored.CloseTabOnSave
	}
	if stored.UseTabGroups != nil {
		s.UseTabGroups = *stored.UseTabGroups
	}
	if stored.SummaryLanguage != nil {
		r.logger.DebugContext(ctx, "dropping deprecated summaryLanguage field")
	}

	return s
}

// current reads the record Save merges into. Unlike Get, a storage read
// failure is returned so the stored record is never overwritten with
// defaults.
func (r *Resolver) current(ctx context.Context) (UserSettings, error) {
	raw, found, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		return Defaults(), errors.Wrap(errors.ErrCodeSettingsWriteFailed, "failed to read settings before saving", err).
			WithSuggestion("Nothing was written; check that the storage location is readable")
	}
	if !found {
		return Defaults(), nil
	}
	stored, err := r.decode(ctx, raw)
	if err != nil {
		r.logger.WithError(err).WarnContext(ctx, "settings record is not decodable, saving over defaults")
		return Defaults(), nil
	}
	return r.resolve(ctx, stored, false), nil
}

// Save merges update into the current settings and persists the result.
// Fields not present in update keep their current values. A language that
// does not resolve to a supported locale is rejected, and so is a save whose
// read of the current record fails; nothing is written in either case.
func (r *Resolver) Save(ctx context.Context, update Partial) (UserSettings, error) {
	var lang Locale
	if update.Language != nil {
		var ok bool
		if lang, ok = NormalizeLocale(*update.Language); !ok {
			r.metrics.RecordSettingsSave("rejected")
			return Defaults(), errors.NewUnsupportedLocaleError(*update.Language, SupportedLocaleNames())
		}
	}

	next, err := r.current(ctx)
	if err != nil {
		r.metrics.RecordSettingsSave("error")
		return next, err
	}

	if update.Language != nil {
		next.Language = lang
	}
	if update.AutoSummarize != nil {
		next.AutoSummarize = *update.AutoSummarize
	}
	if update.CloseTabOnSave != nil {
		next.CloseTabOnSave = *update.CloseTabOnSave
	}
	if update.UseTabGroups != nil {
		next.UseTabGroups = *update.UseTabGroups
	}

	data, err := json.Marshal(next)
	if err != nil {
		r.metrics.RecordSettingsSave("error")
		return next, errors.Wrap(errors.ErrCodeSettingsWriteFailed, "failed to encode settings", err)
	}
	if err := r.store.Set(ctx, StorageKey, data); err != nil {
		r.metrics.RecordSettingsSave("error")
		return next, errors.Wrap(errors.ErrCodeSettingsWriteFailed, "failed to persist settings", err).
			WithSuggestion("Check that the storage location is writable")
	}

	r.metrics.RecordSettingsSave("ok")
	r.logger.DebugContext(ctx, "settings saved", "language", next.Language)
	return next, nil
}
