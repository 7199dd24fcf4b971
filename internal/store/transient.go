package store

import "sync"

// Transient keys, scoped to one process run.
const (
	KeyResetPasswordToken   = "resetPasswordToken"
	KeyPendingLoginEmail    = "pendingLoginEmail"
	KeyPendingLoginPassword = "pendingLoginPassword"
)

// Transient is the session-scoped counterpart of Store: values live
// only for the current process and vanish on exit.
type Transient struct {
	mu     sync.Mutex
	values map[string]string
}

// NewTransient creates an empty transient store.
func NewTransient() *Transient {
	return &Transient{values: make(map[string]string)}
}

// Get returns the value for key, reporting whether it was present.
func (t *Transient) Get(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	value, ok := t.values[key]
	return value, ok
}

// Set writes a single key.
func (t *Transient) Set(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[key] = value
}

// Delete removes the given keys.
func (t *Transient) Delete(keys ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, key := range keys {
		delete(t.values, key)
	}
}

// Clear removes everything.
func (t *Transient) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = make(map[string]string)
}
