package session

import (
	"sort"
	"sync"
)

// Keyring holds the API key of each provider for the session. Keys are
// opaque strings; they are never checked here.
type Keyring struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewKeyring seeds the keyring, skipping empty keys.
func NewKeyring(seed map[string]string) *Keyring {
	k := &Keyring{keys: make(map[string]string)}
	for provider, key := range seed {
		if key != "" {
			k.keys[provider] = key
		}
	}
	return k
}

func (k *Keyring) Get(provider string) (string, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok := k.keys[provider]
	return key, ok
}

// Set stores a key; an empty key removes it.
func (k *Keyring) Set(provider, key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if key == "" {
		delete(k.keys, provider)
		return
	}
	k.keys[provider] = key
}

// Configured lists the providers that have a key, sorted.
func (k *Keyring) Configured() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]string, 0, len(k.keys))
	for p := range k.keys {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
