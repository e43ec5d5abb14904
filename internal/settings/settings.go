// Package settings resolves the user's extension settings from persisted
// state.
//
// Reads never fail: missing fields take defaults, legacy regional locale
// codes are migrated to their base language, the retired summaryLanguage
// field is dropped, and an unreadable store yields the defaults. Writes merge
// a partial update into the current settings field by field.
package settings

import "fmt"

// StorageKey is the fixed key the settings record is persisted under.
const StorageKey = "heyraji.settings"

// UserSettings is the resolved settings record.
type UserSettings struct {
	Language       Locale `json:"language" yaml:"language"`
	AutoSummarize  bool   `json:"autoSummarize" yaml:"autoSummarize"`
	CloseTabOnSave bool   `json:"closeTabOnSave" yaml:"closeTabOnSave"`
	UseTabGroups   bool   `json:"useTabGroups" yaml:"useTabGroups"`
}

// Defaults returns the settings used for any field missing from storage.
func Defaults() UserSettings {
	return UserSettings{
		Language:       DefaultLocale,
		AutoSummarize:  false,
		CloseTabOnSave: false,
		UseTabGroups:   true,
	}
}

// String renders the settings for text output.
func (s UserSettings) String() string {
	return fmt.Sprintf("language:       %s\nautoSummarize:  %t\ncloseTabOnSave: %t\nuseTabGroups:   %t",
		s.Language, s.AutoSummarize, s.CloseTabOnSave, s.UseTabGroups)
}

// Partial is an update to UserSettings. Nil fields are left unchanged.
type Partial struct {
	Language       *string
	AutoSummarize  *bool
	CloseTabOnSave *bool
	UseTabGroups   *bool
}

// storedSettings is the on-disk shape. Pointers distinguish "absent" from
// the zero value; Language stays a raw string so legacy codes survive
// decoding.
type storedSettings struct {
	Language        *string `json:"language,omitempty"`
	AutoSummarize   *bool   `json:"autoSummarize,omitempty"`
	CloseTabOnSave  *bool   `json:"closeTabOnSave,omitempty"`
	UseTabGroups    *bool   `json:"useTabGroups,omitempty"`
	SummaryLanguage *string `json:"summaryLanguage,omitempty"`
}
