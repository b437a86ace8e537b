package service

import (
	"context"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/session"
	"github.com/alexanderramin/smeta/internal/store"
)

type authService struct {
	session  *session.Context
	backend  session.Authenticator
	cache    *store.Store
	observer UseCaseObserver
}

func NewAuthService(sess *session.Context, backend session.Authenticator, cache *store.Store, observers ...UseCaseObserver) AuthService {
	return &authService{
		session:  sess,
		backend:  backend,
		cache:    cache,
		observer: useCaseObserverOrNoop(observers),
	}
}

// Login drops every cached resource, since another user may see other data.
func (s *authService) Login(ctx context.Context, username, password string) (err error) {
	done := track(ctx, s.observer, "login", map[string]any{"user": username})
	defer func() { done(err) }()

	if err = s.session.Login(ctx, s.backend, username, password); err != nil {
		return err
	}
	s.cache.InvalidateAll()
	return nil
}

func (s *authService) Logout(ctx context.Context) (err error) {
	done := track(ctx, s.observer, "logout", nil)
	defer func() { done(err) }()

	s.cache.InvalidateAll()
	return s.session.Logout(ctx)
}

func (s *authService) SetLang(ctx context.Context, code string) (domain.Lang, error) {
	return s.session.SetLang(ctx, code)
}
