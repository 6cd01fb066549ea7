// Package state holds the process-wide ledger snapshot, mirrors it to a
// key/value backend after every change and notifies subscribers.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"cashflow/internal/core"
)

// Persisted keys. Language is session-only and never stored.
const (
	KeyTheme          = "theme"
	KeyBusinesses     = "businesses"
	KeyUser           = "user"
	KeyActiveBusiness = "active-business-id"
	KeyCurrency       = "currency"
)

// KV is the durable key/value storage the store mirrors into. Values are JSON.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Defaults are used for keys that are missing or unreadable.
type Defaults struct {
	Theme    core.Theme
	Currency core.Currency
	Language core.Language
}

// DefaultDefaults returns light theme, SOS and English.
func DefaultDefaults() Defaults {
	return Defaults{Theme: core.ThemeLight, Currency: core.DefaultCurrency, Language: core.DefaultLanguage}
}

// Load reads every key independently. A key that is missing, fails to read or
// fails to decode falls back to its default; Load itself never fails.
func Load(ctx context.Context, kv KV, d Defaults, logger *slog.Logger) core.State {
	if logger == nil {
		logger = slog.Default()
	}
	s := core.State{
		Businesses: []core.Business{},
		Theme:      d.Theme,
		Currency:   d.Currency,
		Language:   d.Language,
	}

	var businesses []core.Business
	if readKey(ctx, kv, KeyBusinesses, &businesses, logger) && businesses != nil {
		s.Businesses = businesses
	}
	var user core.User
	if readKey(ctx, kv, KeyUser, &user, logger) && user.ID != "" {
		s.CurrentUser = &user
	}
	var active string
	if readKey(ctx, kv, KeyActiveBusiness, &active, logger) {
		s.ActiveBusinessID = active
	}
	var theme core.Theme
	if readKey(ctx, kv, KeyTheme, &theme, logger) && theme.IsValid() {
		s.Theme = theme
	}
	var currency core.Currency
	if readKey(ctx, kv, KeyCurrency, &currency, logger) && currency.IsValid() {
		s.Currency = currency
	}
	return s
}

func readKey(ctx context.Context, kv KV, key string, dst any, logger *slog.Logger) bool {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		logger.WarnContext(ctx, "Failed to read persisted key, using default", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		logger.WarnContext(ctx, "Malformed persisted value, using default", "key", key, "error", err)
		return false
	}
	return true
}

// encode returns the stored form of every persisted key. An empty value means
// the key is absent.
func encode(s core.State) (map[string]string, error) {
	out := make(map[string]string, 5)
	put := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		out[key] = string(b)
		return nil
	}

	businesses := s.Businesses
	if businesses == nil {
		businesses = []core.Business{}
	}
	if err := put(KeyBusinesses, businesses); err != nil {
		return nil, err
	}
	if err := put(KeyTheme, s.Theme); err != nil {
		return nil, err
	}
	if err := put(KeyCurrency, s.Currency); err != nil {
		return nil, err
	}
	out[KeyUser] = ""
	if s.CurrentUser != nil {
		if err := put(KeyUser, s.CurrentUser); err != nil {
			return nil, err
		}
	}
	out[KeyActiveBusiness] = ""
	if s.ActiveBusinessID != "" {
		if err := put(KeyActiveBusiness, s.ActiveBusinessID); err != nil {
			return nil, err
		}
	}
	return out, nil
}
