package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/smeta/internal/domain"
	"github.com/alexanderramin/smeta/internal/repository"
	"github.com/alexanderramin/smeta/internal/session"
	"github.com/alexanderramin/smeta/internal/testutil"
)

type fakeAuth struct {
	token string
	err   error
	calls int
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (domain.LoginResult, error) {
	f.calls++
	if f.err != nil {
		return domain.LoginResult{}, f.err
	}
	return domain.LoginResult{AccessToken: f.token, TokenType: "bearer"}, nil
}

func newSession(t *testing.T) (*session.Context, repository.SettingsRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteSettingsRepo(database)
	return session.New(repo, testutil.NewTestUoW(database), nil), repo
}

func TestLoad_DetectsLanguageWhenNoneSaved(t *testing.T) {
	s, _ := newSession(t)
	require.NoError(t, s.Load(context.Background(), "kk_KZ.UTF-8"))

	assert.Equal(t, domain.LangKk, s.Lang())
	assert.False(t, s.Authenticated())
}

func TestLoad_RestoresSavedSession(t *testing.T) {
	s, repo := newSession(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, repository.KeyAuthToken, "tok"))
	require.NoError(t, repo.Set(ctx, repository.KeyAuthUser, "aigerim"))
	require.NoError(t, repo.Set(ctx, repository.KeyLang, "kk"))

	require.NoError(t, s.Load(ctx, "ru_RU"))
	assert.Equal(t, "tok", s.Token())
	assert.Equal(t, "aigerim", s.User())
	assert.Equal(t, domain.LangKk, s.Lang())
}

func TestLogin_PersistsTokenAndUser(t *testing.T) {
	s, repo := newSession(t)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, &fakeAuth{token: "tok-1"}, " aigerim ", "pw"))
	assert.Equal(t, "tok-1", s.Token())
	assert.Equal(t, "aigerim", s.User())

	saved, err := repo.Get(ctx, repository.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", saved)
}

func TestLogin_EmptyCredentialsNeverReachTheServer(t *testing.T) {
	s, _ := newSession(t)
	auth := &fakeAuth{token: "x"}

	err := s.Login(context.Background(), auth, "  ", "pw")
	assert.ErrorIs(t, err, session.ErrEmptyCredentials)
	assert.Zero(t, auth.calls)
}

func TestLogin_ServerRejectionLeavesSessionEmpty(t *testing.T) {
	s, repo := newSession(t)
	denied := errors.New("Неверный логин или пароль")

	err := s.Login(context.Background(), &fakeAuth{err: denied}, "u", "p")
	assert.ErrorIs(t, err, denied)
	assert.False(t, s.Authenticated())
	_, err = repo.Get(context.Background(), repository.KeyAuthToken)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLogin_RollsBackWhenSecondWriteFails(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewSQLiteSettingsRepo(database)
	boom := errors.New("disk full")
	s := session.New(repo, &testutil.FailOnNthExecUoW{DB: database, FailOn: 2, Err: boom}, nil)

	err := s.Login(context.Background(), &fakeAuth{token: "tok"}, "u", "p")
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.Authenticated())
	_, err = repo.Get(context.Background(), repository.KeyAuthToken)
	assert.ErrorIs(t, err, repository.ErrNotFound, "token write rolled back with the user write")
}

func TestLogout_KeepsLanguage(t *testing.T) {
	s, repo := newSession(t)
	ctx := context.Background()
	require.NoError(t, s.Login(ctx, &fakeAuth{token: "tok"}, "u", "p"))
	_, err := s.SetLang(ctx, "kk")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))
	assert.Empty(t, s.Token())
	assert.Empty(t, s.User())
	assert.Equal(t, domain.LangKk, s.Lang())

	_, err = repo.Get(ctx, repository.KeyAuthUser)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	lang, err := repo.Get(ctx, repository.KeyLang)
	require.NoError(t, err)
	assert.Equal(t, "kk", lang)
}

func TestSetLang_RejectsUnknown(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.SetLang(context.Background(), "en")
	assert.Error(t, err)
	assert.Equal(t, domain.LangRu, s.Lang())

	lang, err := s.SetLang(context.Background(), " KK ")
	require.NoError(t, err)
	assert.Equal(t, domain.LangKk, lang)
}

func TestParseClaims(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "aigerim",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	c := session.ParseClaims(signed)
	assert.Equal(t, "aigerim", c.Subject)
	assert.True(t, exp.Equal(c.ExpiresAt))
	assert.False(t, c.Expired(exp.Add(-time.Hour)))
	assert.True(t, c.Expired(exp.Add(time.Hour)))

	assert.Equal(t, session.Claims{}, session.ParseClaims("not-a-jwt"))
	assert.Equal(t, session.Claims{}, session.ParseClaims(""))
}
