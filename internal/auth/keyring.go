package auth

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/zalando/go-keyring"
)

// Keyring defaults.
const (
	DefaultKeyringService = "heyraji"
	DefaultKeyringUser    = "session"
)

// KeyringStore keeps the session in the OS credential store (macOS
// Keychain, Windows Credential Manager, Secret Service on Linux).
type KeyringStore struct {
	service string
	user    string
}

// NewKeyringStore creates a keyring-backed store. Empty arguments take the
// defaults.
func NewKeyringStore(service, user string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	if user == "" {
		user = DefaultKeyringUser
	}
	return &KeyringStore{service: service, user: user}
}

// Load reads the session from the keyring.
func (k *KeyringStore) Load(_ context.Context) (*Session, error) {
	secret, err := keyring.Get(k.service, k.user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal([]byte(secret), &s); err != nil {
		return nil, WrapError(ErrSessionStoreFailed, "keyring entry is corrupt", err, map[string]interface{}{
			"service": k.service,
		})
	}
	return &s, nil
}

// Save writes the session to the keyring.
func (k *KeyringStore) Save(_ context.Context, session *Session) error {
	if session == nil {
		return NewError(ErrSessionStoreFailed, "session cannot be nil", nil)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return keyring.Set(k.service, k.user, string(data))
}

// Delete removes the keyring entry. A missing entry is not an error.
func (k *KeyringStore) Delete(_ context.Context) error {
	if err := keyring.Delete(k.service, k.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
