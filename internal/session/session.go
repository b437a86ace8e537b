// Package session holds the signed-in user's token, name and language.
// One Context is created at startup and handed to everything that needs
// it; there is no package-level session state.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alexanderramin/smeta/internal/db"
	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/alexanderramin/smeta/internal/repository"
)

// ErrEmptyCredentials rejects a login attempt before it reaches the server.
var ErrEmptyCredentials = errors.New("username and password are required")

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (domain.LoginResult, error)
}

// SettingsFactory binds a settings repository to a transaction.
type SettingsFactory func(tx db.DBTX) repository.SettingsRepo

// Context is safe for concurrent use.
type Context struct {
	mu    sync.RWMutex
	token string
	user  string
	lang  domain.Lang

	settings    repository.SettingsRepo
	uow         db.UnitOfWork
	settingsFor SettingsFactory
}

// New creates an empty context over the given settings store. The zero
// language is Russian until Load runs.
func New(settings repository.SettingsRepo, uow db.UnitOfWork, settingsFor SettingsFactory) *Context {
	if settingsFor == nil {
		settingsFor = func(tx db.DBTX) repository.SettingsRepo { return repository.NewSQLiteSettingsRepo(tx) }
	}
	return &Context{settings: settings, uow: uow, settingsFor: settingsFor, lang: domain.LangRu}
}

// Load restores the persisted session. Without a saved language it falls
// back to the language of locale.
func (c *Context) Load(ctx context.Context, locale string) error {
	token, err := c.optional(ctx, repository.KeyAuthToken)
	if err != nil {
		return err
	}
	user, err := c.optional(ctx, repository.KeyAuthUser)
	if err != nil {
		return err
	}
	saved, err := c.optional(ctx, repository.KeyLang)
	if err != nil {
		return err
	}
	lang, perr := domain.ParseLang(saved)
	if perr != nil {
		lang = i18n.DetectLang(locale)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.token, c.user, c.lang = token, user, lang
	return nil
}

func (c *Context) optional(ctx context.Context, key string) (string, error) {
	v, err := c.settings.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// Login authenticates and persists the token and username together.
func (c *Context) Login(ctx context.Context, auth Authenticator, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}
	res, err := auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	err = c.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := c.settingsFor(tx)
		if err := repo.Set(ctx, repository.KeyAuthToken, res.AccessToken); err != nil {
			return err
		}
		return repo.Set(ctx, repository.KeyAuthUser, username)
	})
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.token, c.user = res.AccessToken, username
	return nil
}

// Logout forgets the token and username. The language stays.
func (c *Context) Logout(ctx context.Context) error {
	err := c.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := c.settingsFor(tx)
		if err := repo.Delete(ctx, repository.KeyAuthToken); err != nil {
			return err
		}
		return repo.Delete(ctx, repository.KeyAuthUser)
	})
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.token, c.user = "", ""
	return nil
}

// SetLang validates and persists the interface language.
func (c *Context) SetLang(ctx context.Context, code string) (domain.Lang, error) {
	lang, err := domain.ParseLang(strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return "", err
	}
	if err := c.settings.Set(ctx, repository.KeyLang, string(lang)); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lang = lang
	return lang, nil
}

// Token implements the API client's token source.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Context) User() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Context) Lang() domain.Lang {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang
}

func (c *Context) Authenticated() bool {
	return c.Token() != ""
}

// Claims is what the token says about itself. It is read without
// verifying the signature and is for display only.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry before now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims parses the current token. A token that is not a JWT yields zero
// claims.
func (c *Context) Claims() Claims {
	return ParseClaims(c.Token())
}

// ParseClaims reads subject and expiry from a JWT without verifying it.
func ParseClaims(token string) Claims {
	if token == "" {
		return Claims{}
	}
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return Claims{}
	}
	out := Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		out.ExpiresAt = rc.ExpiresAt.Time
	}
	return out
}
