package session

import (
	"encoding/json"
	"errors"

	"github.com/99designs/keyring"
)

const (
	sessionKey    = "session"
	sessionPrefix = "session:"
	defaultName   = "default"
)

// KeyringStore keeps the session as one JSON item in the OS keyring.
type KeyringStore struct {
	recordStore
}

// NewKeyringStore stores the session under "session", or "session:<profile>"
// for a non-default profile.
func NewKeyringStore(ring keyring.Keyring, profile string) *KeyringStore {
	s := &KeyringStore{}
	s.b = &keyringBackend{ring: ring, key: keyringKey(profile)}
	return s
}

func keyringKey(profile string) string {
	if profile == "" || profile == defaultName {
		return sessionKey
	}
	return sessionPrefix + profile
}

type keyringBackend struct {
	ring keyring.Keyring
	key  string
}

func (k *keyringBackend) get() (Session, bool, error) {
	item, err := k.ring.Get(k.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var sess Session
	if err := json.Unmarshal(item.Data, &sess); err != nil {
		return Session{}, false, err
	}
	return sess, true, nil
}

func (k *keyringBackend) put(sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return k.ring.Set(keyring.Item{
		Key:         k.key,
		Data:        data,
		Label:       "GameX session",
		Description: "GameX storefront bearer token and role",
	})
}

func (k *keyringBackend) del() error {
	err := k.ring.Remove(k.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}
