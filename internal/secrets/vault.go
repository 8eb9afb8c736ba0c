// Package secrets holds credentials that can be rotated without a restart.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
)

// Loader retrieves the current secret values.
type Loader func() (map[string]string, error)

// Vault holds secret values in memory and swaps them atomically on reload.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string
	loader Loader
	hooks  []func(*Vault)
}

// NewVault creates a Vault, calling the loader once to populate initial values.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("initial secret load: %w", err)
	}
	return &Vault{values: vals, loader: loader}, nil
}

// Get returns the secret for key, or an empty string if not found.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// OnReload registers fn to run after every successful reload.
func (v *Vault) OnReload(fn func(*Vault)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hooks = append(v.hooks, fn)
}

// Reload calls the loader and swaps in the new values. If the loader fails
// the existing values are kept and no hook runs.
func (v *Vault) Reload() error {
	vals, err := v.loader()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	v.values = vals
	hooks := append(([]func(*Vault))(nil), v.hooks...)
	v.mu.Unlock()

	for _, fn := range hooks {
		fn(v)
	}
	return nil
}

// ReloadOn reloads the vault whenever one of sigs arrives, typically
// SIGHUP. The returned func stops listening.
func (v *Vault) ReloadOn(sigs ...os.Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				if err := v.Reload(); err != nil {
					slog.Error("secret reload failed", "error", err)
					continue
				}
				slog.Info("secrets reloaded")
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
