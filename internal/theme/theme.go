// Package theme holds the per-session light/dark preference. The Provider is
// created once in main and handed to whatever renders pages; there is no
// package-level state.
package theme

import (
	"context"
	"fmt"
)

// Mode is the colour scheme.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"

	// DefaultMode applies to sessions with nothing stored.
	DefaultMode = Dark
)

// ParseMode accepts "light" or "dark".
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case Light, Dark:
		return m, nil
	}
	return "", fmt.Errorf("unknown theme mode %q", s)
}

// Toggled returns the opposite mode.
func (m Mode) Toggled() Mode {
	if m == Light {
		return Dark
	}
	return Light
}

// Store persists one mode per session. Get returns ("", nil) when nothing
// is stored.
type Store interface {
	Get(ctx context.Context, session string) (string, error)
	Set(ctx context.Context, session string, mode Mode) error
}

// Provider reads modes from storage and writes them back on change.
type Provider struct {
	store Store
}

// NewProvider wraps store.
func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

// Mode returns the stored mode for session. Missing or corrupt values yield
// DefaultMode; a storage failure is returned alongside DefaultMode so the
// page can still render.
func (p *Provider) Mode(ctx context.Context, session string) (Mode, error) {
	raw, err := p.store.Get(ctx, session)
	if err != nil {
		return DefaultMode, fmt.Errorf("read theme for %s: %w", session, err)
	}
	m, err := ParseMode(raw)
	if err != nil {
		return DefaultMode, nil
	}
	return m, nil
}

// Set stores mode for session when it differs from the current one.
func (p *Provider) Set(ctx context.Context, session string, mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	if raw, err := p.store.Get(ctx, session); err == nil && raw == string(mode) {
		return nil
	}
	if err := p.store.Set(ctx, session, mode); err != nil {
		return fmt.Errorf("save theme for %s: %w", session, err)
	}
	return nil
}

// Toggle flips the session's mode, persists it and returns the new value.
func (p *Provider) Toggle(ctx context.Context, session string) (Mode, error) {
	current, _ := p.Mode(ctx, session)
	next := current.Toggled()
	if err := p.Set(ctx, session, next); err != nil {
		return current, err
	}
	return next, nil
}
