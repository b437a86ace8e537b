package repository

import (
	"context"
	"errors"
)

// ErrNotFound is wrapped by every lookup that finds no row.
var ErrNotFound = errors.New("not found")

// Fixed settings keys.
const (
	KeyAuthToken = "auth_token"
	KeyAuthUser  = "auth_user"
	KeyLang      = "lang"
)

// SettingsRepo is the persistent key/value slot for session state.
type SettingsRepo interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// HistoryRepo keeps the address bar history, oldest first.
type HistoryRepo interface {
	Append(ctx context.Context, entry string) error
	Recent(ctx context.Context, limit int) ([]string, error)
}
