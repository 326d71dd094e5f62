package store

import (
	"context"
	"log/slog"
)

// PreferencePort adapts a Store to the synchronous get/set preference
// interface used by the view controller. Write failures are logged and
// otherwise ignored.
type PreferencePort struct {
	ctx    context.Context
	store  Store
	logger *slog.Logger
}

// NewPreferencePort binds a store to ctx for preference access.
func NewPreferencePort(ctx context.Context, s Store, logger *slog.Logger) *PreferencePort {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PreferencePort{ctx: ctx, store: s, logger: logger}
}

// Get returns the stored value for key and whether it exists.
func (p *PreferencePort) Get(key string) (string, bool) {
	v, ok, err := p.store.GetPreference(p.ctx, key)
	if err != nil {
		p.logger.Warn("read preference", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

// Set stores value under key.
func (p *PreferencePort) Set(key, value string) {
	if err := p.store.SetPreference(p.ctx, key, value); err != nil {
		p.logger.Warn("write preference", "key", key, "error", err)
	}
}
