// Package credentials stores server secrets in the OS keyring.
package credentials

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// Service is the keyring service name entries are stored under.
const Service = "mcp-hub"

const probeKey = "__mcp_hub_probe__"

// Store holds opaque secret values by key.
type Store interface {
	Store(key, value string) error
	Get(key string) (string, bool, error)
	Delete(key string) error
	Available() bool
}

// Key is the credential key for one env var of a server.
func Key(serverID, envVar string) string {
	return fmt.Sprintf("server:%s:env:%s", serverID, envVar)
}

// Keyring is a Store over the OS credential manager.
type Keyring struct {
	service string

	probe     sync.Once
	available bool
}

// NewKeyring returns a Keyring using the default service name.
func NewKeyring() *Keyring {
	return &Keyring{service: Service}
}

// Store saves value under key, replacing any previous value.
func (k *Keyring) Store(key, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return fmt.Errorf("store credential %s: %w", key, err)
	}
	return nil
}

// Get returns the value under key. A missing key is not an error.
func (k *Keyring) Get(key string) (string, bool, error) {
	v, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get credential %s: %w", key, err)
	}
	return v, true, nil
}

// Delete removes key. Deleting a missing key succeeds.
func (k *Keyring) Delete(key string) error {
	err := keyring.Delete(k.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete credential %s: %w", key, err)
	}
	return nil
}

// Available reports whether the OS keyring can be reached. The result of
// the first probe is reused.
func (k *Keyring) Available() bool {
	k.probe.Do(func() {
		_, err := keyring.Get(k.service, probeKey)
		k.available = err == nil || errors.Is(err, keyring.ErrNotFound)
	})
	return k.available
}
