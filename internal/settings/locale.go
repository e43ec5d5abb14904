package settings

import (
	"strings"

	"github.com/samber/lo"
)

// Locale is a two-letter language code used for the UI and summary output.
type Locale string

// DefaultLocale is used whenever a stored or requested language cannot be
// mapped to a supported locale.
const DefaultLocale Locale = "en"

var supportedLocales = []Locale{"en", "es", "pt", "fr", "de", "it", "ja", "ko", "zh"}

// SupportedLocales returns the supported locale codes in display order.
func SupportedLocales() []Locale {
	return append([]Locale(nil), supportedLocales...)
}

// SupportedLocaleNames returns the supported codes as strings.
func SupportedLocaleNames() []string {
	return lo.Map(supportedLocales, func(l Locale, _ int) string { return string(l) })
}

// IsSupported reports whether l is one of the supported locales.
func IsSupported(l Locale) bool {
	return lo.Contains(supportedLocales, l)
}

// NormalizeLocale maps a stored or user supplied language value to a
// supported locale. Regional codes ("pt-BR", "zh_tw") resolve to their base
// language when that base is supported. ok is false when no supported locale
// matched; the returned locale is then DefaultLocale.
func NormalizeLocale(value string) (Locale, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return DefaultLocale, false
	}
	if IsSupported(Locale(v)) {
		return Locale(v), true
	}

	base, region, found := strings.Cut(strings.ReplaceAll(v, "_", "-"), "-")
	if !found || region == "" {
		return DefaultLocale, false
	}
	if IsSupported(Locale(base)) {
		return Locale(base), true
	}
	return DefaultLocale, false
}
